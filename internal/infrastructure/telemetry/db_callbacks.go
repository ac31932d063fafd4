package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type dbContextKey string

// registerTimedCallbacks stamps a start time on every statement and calls
// after with the elapsed duration and operation once the statement has run.
// With beforeSpanEnd set, after runs while the otelgorm span is still open.
func registerTimedCallbacks(db *gorm.DB, prefix string, beforeSpanEnd bool, after func(db *gorm.DB, operation string, elapsed time.Duration)) error {
	startKey := dbContextKey(prefix + "_start")

	before := func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, startKey, time.Now())
	}

	afterFor := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			var elapsed time.Duration
			if db.Statement.Context != nil {
				if start, ok := db.Statement.Context.Value(startKey).(time.Time); ok {
					elapsed = time.Since(start)
				}
			}
			op := operation
			if op == "" {
				op = detectOperationType(db.Statement.SQL.String())
			}
			after(db, op, elapsed)
		}
	}

	// otelgorm ends its span in "otel:after:<kind>"; an empty name leaves ordering alone
	spanEnd := func(kind string) string {
		if !beforeSpanEnd {
			return ""
		}
		return "otel:after:" + kind
	}

	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(prefix+":before_create", before),
		cb.Create().After("gorm:create").Before(spanEnd("create")).Register(prefix+":after_create", afterFor("INSERT")),
		cb.Query().Before("gorm:query").Register(prefix+":before_query", before),
		cb.Query().After("gorm:query").Before(spanEnd("select")).Register(prefix+":after_query", afterFor("SELECT")),
		cb.Update().Before("gorm:update").Register(prefix+":before_update", before),
		cb.Update().After("gorm:update").Before(spanEnd("update")).Register(prefix+":after_update", afterFor("UPDATE")),
		cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before),
		cb.Delete().After("gorm:delete").Before(spanEnd("delete")).Register(prefix+":after_delete", afterFor("DELETE")),
		cb.Row().Before("gorm:row").Register(prefix+":before_row", before),
		cb.Row().After("gorm:row").Before(spanEnd("row")).Register(prefix+":after_row", afterFor("")),
		cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before),
		cb.Raw().After("gorm:raw").Before(spanEnd("raw")).Register(prefix+":after_raw", afterFor("")),
	)
}

// detectOperationType guesses the SQL verb of a raw statement
func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}
