//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/pw-import/internal/adapter/csvfile"
	"github.com/couchcryptid/pw-import/internal/adapter/kafka"
	"github.com/couchcryptid/pw-import/internal/adapter/mesowest"
	"github.com/couchcryptid/pw-import/internal/adapter/sqlite"
	"github.com/couchcryptid/pw-import/internal/adapter/wyoming"
	"github.com/couchcryptid/pw-import/internal/config"
	"github.com/couchcryptid/pw-import/internal/observability"
	"github.com/couchcryptid/pw-import/internal/pipeline"
)

const testTopic = "test-pw-rows"

const inputCSV = `Date,Condition,RH,a,b,c,d,Time,NWS Time,NWS Temp,TE Sky,FLIR Sky,AMES1 Sky,AMES2 Sky,TE Ground,FLIR Ground,AMES1 Ground,AMES2 Ground,Comments
5/1/2019,clear,20,,,,,10:30,10:53,24.4,-12.5,-15.2,-14.1,-13.9,31.2,30.4,29.8,30.1,
5/2/2019,haze,21,,,,,10:40,10:53,24.4,-11.5,-14.2,-13.1,-12.9,30.2,29.4,28.8,29.1,
5/3/2019,clear sky/haze,22,,,,,10:32/10:40,10:53,24.4,-12.5/-12.1,-15.2,-14.1,-13.9,31.2,30.4,29.8,30.1,wind
5/4/2019,overcast,23,,,,,11:00,10:53,24.4,-10.5,-13.2,-12.1,-11.9,28.2,27.4,26.8,27.1,
`

const soundingPage = `<HTML><BODY><PRE>
                           Station identifier: %s
Precipitable water [mm] for entire sounding: %s
</PRE></BODY></HTML>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("pw-import-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// wyomingStub answers every sounding request with a station-dependent value.
func wyomingStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		station := r.URL.Query().Get("STNM")
		value := "11.27"
		if station == "EPZ" {
			value = "14.0"
		}
		fmt.Fprintf(w, soundingPage, station, value)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// mesowestStub answers with two observations on the requested local day.
func mesowestStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, err := time.Parse("200601021504", r.URL.Query().Get("start"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// The request window opens 14h before the requested day.
		day := start.Add(14 * time.Hour).Format("2006-01-02")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
  "SUMMARY": {"RESPONSE_CODE": 1, "RESPONSE_MESSAGE": "OK"},
  "STATION": [{"STID": "KONM", "OBSERVATIONS": {
    "date_time": ["%[1]sT10:15:00-0600", "%[1]sT10:35:00-0600"],
    "air_temp_set_1": [21.7, 22.846],
    "relative_humidity_set_1": [19.5, 18.2]
  }}]
}`, day)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestImport_EndToEnd runs a resumed import against stubbed remote sources,
// persisting the cursor in SQLite and fanning rows out to Kafka.
func TestImport_EndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "cool_data.csv")
	outputPath := filepath.Join(dir, "master_data.csv")
	require.NoError(t, os.WriteFile(inputPath, []byte(inputCSV), 0o600))
	require.NoError(t, os.WriteFile(outputPath,
		[]byte("5/1/2019,clear,20.0,9.0,9.5,12.0,13.0,10:40,10:35,22.0,-11.5,-14.2,-13.1,-12.9,30.2,29.4,28.8,29.1,\n"), 0o600))

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	db, err := sqlite.Open(ctx, filepath.Join(dir, "cursor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	output := csvfile.OutputFile{Path: outputPath}
	cursor := sqlite.NewCursorStore(db, sqlite.DefaultCursorName, output)
	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })

	soundings := wyoming.NewCachedSource(
		wyoming.NewClient(wyomingStub(t).URL, 5*time.Second, metrics, logger), 16, metrics)
	surface := mesowest.NewClient(mesowestStub(t).URL, "token", 5*time.Second, metrics, logger)

	builder := pipeline.NewBuilder(soundings, surface, output, writer, pipeline.BuilderConfig{
		Stations:       [2]string{"ABQ", "EPZ"},
		SurfaceStation: "KONM",
		Retry:          pipeline.RetryPolicy{MaxRetries: 1},
	}, logger, metrics)
	progress := observability.NewProgress(io.Discard, "importing", metrics.Progress)

	p := pipeline.New(csvfile.InputFile{Path: inputPath}, cursor, builder, progress, logger, metrics)

	written, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.InDelta(t, 100, progress.Percent(), 1e-9)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t,
		"5/2/2019,clear sky,18.2,11.27,11.27,14.0,14.0,10:32,10:35,22.85,-12.5,-15.2,-14.1,-13.9,31.2,30.4,29.8,30.1,",
		lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "5/3/2019,overcast,18.2,"))

	last, err := cursor.LastDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, time.May, 3, 0, 0, 0, 0, time.UTC), last)

	// A second run has nothing left to write.
	written, err = pipeline.New(csvfile.InputFile{Path: inputPath}, cursor, builder, progress, logger, metrics).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, written)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()

	for _, wantKey := range []string{"2019-05-02", "2019-05-03"} {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from row topic")
		assert.Equal(t, wantKey, string(msg.Key))

		var row kafka.RowMessage
		require.NoError(t, json.Unmarshal(msg.Value, &row))
		assert.Equal(t, [2]string{"ABQ", "EPZ"}, row.Stations)
		assert.Equal(t, "11.27", row.Fields["pw12_station1"])
	}
}
