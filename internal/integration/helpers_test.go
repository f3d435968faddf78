//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/couchcryptid/quake-match/internal/adapter/postgres"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startPostgres runs a throwaway Postgres and returns its DSN.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("quakematch"),
		tcpostgres.WithUsername("quake"),
		tcpostgres.WithPassword("quake"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start postgres container")

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// startKafka runs a single-node Kafka and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("quakematch-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	controller, err := conn.Controller()
	require.NoError(t, err)

	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer func() { _ = cconn.Close() }()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// seedDB opens a plain GORM handle for arranging detection rows, which this
// module never writes itself.
func seedDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormpg.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqldb, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	return db
}

func seedDetection(t *testing.T, db *gorm.DB, id string, at time.Time, lat, lon string) {
	t.Helper()
	require.NoError(t, db.Create(&postgres.DetectionRow{
		DetectionID:   id,
		DetectionTime: at,
		DetectionLat:  decimal.RequireFromString(lat),
		DetectionLon:  decimal.RequireFromString(lon),
	}).Error)
}

// loadMatch reads the match row for a detection; found is false when none exists.
func loadMatch(t *testing.T, db *gorm.DB, detectionID string) (postgres.MatchRow, bool) {
	t.Helper()
	var rows []postgres.MatchRow
	require.NoError(t, db.Where("detection_id = ?", detectionID).Limit(1).Find(&rows).Error)
	if len(rows) == 0 {
		return postgres.MatchRow{}, false
	}
	return rows[0], true
}
