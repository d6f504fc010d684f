package db

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodgram/internal/model"
)

// sqlRecorder keeps every statement GORM would have sent.
type sqlRecorder struct {
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{}) {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{}) {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}
func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.statements = append(r.statements, sql)
}

func mysqlDDL(t *testing.T, value interface{}) string {
	t.Helper()
	rec := &sqlRecorder{}
	gdb, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "foodgram:foodgram@tcp(127.0.0.1:3306)/foodgram?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, Logger: rec})
	require.NoError(t, err)
	require.NoError(t, gdb.Migrator().CreateTable(value))
	for _, stmt := range rec.statements {
		if strings.HasPrefix(stmt, "CREATE TABLE") {
			return stmt
		}
	}
	t.Fatalf("no CREATE TABLE among %v", rec.statements)
	return ""
}

func TestMySQLSchema_FollowsHasNoCheckOnCascadedColumns(t *testing.T) {
	ddl := mysqlDDL(t, &model.Follow{})
	assert.Contains(t, ddl, "ON DELETE CASCADE")
	assert.NotContains(t, ddl, "CHECK")
}
