package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	redismock "github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"

	"github.com/ticketline/reservation-core/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSetZoneAddsToConcertIndex(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, time.Minute, time.Hour, testLogger())

	z := &domain.Zone{ID: "zone-1", ConcertID: "concert-1"}

	mock.Regexp().ExpectSet(zonePrefix+"zone-1", `.*`, time.Minute).SetVal("OK")
	mock.ExpectSAdd(zoneIndexPrefix+"concert-1", "zone-1").SetVal(1)
	mock.ExpectExpire(zoneIndexPrefix+"concert-1", time.Minute).SetVal(true)

	c.SetZone(context.Background(), z)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateZonesByConcertRemovesOnlyThatConcertsKeys(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, time.Minute, time.Hour, testLogger())

	indexKey := zoneIndexPrefix + "concert-1"
	mock.ExpectSMembers(indexKey).SetVal([]string{"zone-1", "zone-2"})
	mock.ExpectUnlink(zonePrefix+"zone-1", zonePrefix+"zone-2", indexKey, concertPrefix+"concert-1").SetVal(4)

	err := c.InvalidateZonesByConcert(context.Background(), "concert-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateZonesByConcertWithEmptyIndexStillClearsConcertKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, time.Minute, time.Hour, testLogger())

	indexKey := zoneIndexPrefix + "concert-2"
	mock.ExpectSMembers(indexKey).SetVal(nil)
	mock.ExpectUnlink(indexKey, concertPrefix+"concert-2").SetVal(2)

	err := c.InvalidateZonesByConcert(context.Background(), "concert-2")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateZonesByConcertPropagatesSMembersError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, time.Minute, time.Hour, testLogger())

	indexKey := zoneIndexPrefix + "concert-3"
	mock.ExpectSMembers(indexKey).SetErr(errRedis)

	err := c.InvalidateZonesByConcert(context.Background(), "concert-3")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateZonesByConcertDoesNotTouchOtherConcerts(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	c := New(rdb, time.Minute, time.Hour, testLogger())

	mock.ExpectSMembers(zoneIndexPrefix + "concert-A").SetVal([]string{"zone-a1"})
	mock.ExpectUnlink(zonePrefix+"zone-a1", zoneIndexPrefix+"concert-A", concertPrefix+"concert-A").SetVal(3)

	err := c.InvalidateZonesByConcert(context.Background(), "concert-A")
	require.NoError(t, err)
	// Only concert-A's keys were ever referenced; no expectation touches
	// zone-b1 or concert-B, matching the per-concert scoping contract.
	require.NoError(t, mock.ExpectationsWereMet())
}

var errRedis = &mockErr{"redis unavailable"}

type mockErr struct{ msg string }

func (e *mockErr) Error() string { return e.msg }
