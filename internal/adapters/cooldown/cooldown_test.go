package cooldown_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	cooldown "github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/cooldown"
	. "github.com/smartystreets/goconvey/convey"
	_ "modernc.org/sqlite"
)

func TestCounterKeys(t *testing.T) {
	Convey("Given the counter key builders", t, func() {
		Convey("Then turn keys are scoped per character", func() {
			So(cooldown.TurnKey("char-1"), ShouldEqual, "turns:char-1")
		})

		Convey("Then skip keys are scoped per raid and character", func() {
			So(cooldown.SkipKey("raid-1", "char-1"), ShouldEqual, "skips:raid-1:char-1")
		})
	})
}

func TestMemoryCounter(t *testing.T) {
	Convey("Given an in-memory counter with a fixed clock", t, func() {
		ctx := context.Background()
		current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		counter := cooldown.NewMemoryCounter(cooldown.WithMemoryClock(func() time.Time {
			return current
		}))

		Convey("When incrementing a fresh key", func() {
			n, err := counter.Incr(ctx, "turns:a", time.Hour)

			Convey("Then the window starts at one", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When incrementing the same key repeatedly", func() {
			for i := 0; i < 3; i++ {
				_, err := counter.Incr(ctx, "turns:a", time.Hour)
				So(err, ShouldBeNil)
			}
			n, err := counter.Get(ctx, "turns:a")

			Convey("Then the count climbs within the window", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
			})
		})

		Convey("When two keys are incremented", func() {
			_, err := counter.Incr(ctx, "turns:a", time.Hour)
			So(err, ShouldBeNil)
			_, err = counter.Incr(ctx, "turns:b", time.Hour)
			So(err, ShouldBeNil)
			_, err = counter.Incr(ctx, "turns:b", time.Hour)
			So(err, ShouldBeNil)

			Convey("Then counts stay independent", func() {
				a, err := counter.Get(ctx, "turns:a")
				So(err, ShouldBeNil)
				So(a, ShouldEqual, 1)

				b, err := counter.Get(ctx, "turns:b")
				So(err, ShouldBeNil)
				So(b, ShouldEqual, 2)
			})
		})

		Convey("When the window lapses", func() {
			_, err := counter.Incr(ctx, "turns:a", time.Hour)
			So(err, ShouldBeNil)
			current = current.Add(time.Hour)

			Convey("Then reads see zero", func() {
				n, err := counter.Get(ctx, "turns:a")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})

			Convey("And the next increment restarts at one", func() {
				n, err := counter.Incr(ctx, "turns:a", time.Hour)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When reading a key that was never written", func() {
			n, err := counter.Get(ctx, "turns:missing")

			Convey("Then the count is zero", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When purging after some windows lapse", func() {
			_, err := counter.Incr(ctx, "turns:a", 10*time.Minute)
			So(err, ShouldBeNil)
			_, err = counter.Incr(ctx, "turns:b", 2*time.Hour)
			So(err, ShouldBeNil)
			current = current.Add(time.Hour)

			purged, err := counter.PurgeExpired(ctx)

			Convey("Then only the lapsed window is removed", func() {
				So(err, ShouldBeNil)
				So(purged, ShouldEqual, 1)

				b, err := counter.Get(ctx, "turns:b")
				So(err, ShouldBeNil)
				So(b, ShouldEqual, 1)
			})
		})
	})
}

func TestSQLCounter(t *testing.T) {
	Convey("Given a SQL counter with a fixed clock", t, func() {
		ctx := context.Background()
		db := openCounterDB(t)
		current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return current }
		counter := cooldown.NewSQLCounter(db, cooldown.WithSQLClock(clock))

		Convey("When incrementing a fresh key", func() {
			n, err := counter.Incr(ctx, "skips:r1:c1", time.Minute)

			Convey("Then the window starts at one", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})

			Convey("And further increments climb", func() {
				n, err := counter.Incr(ctx, "skips:r1:c1", time.Minute)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)

				got, err := counter.Get(ctx, "skips:r1:c1")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, 2)
			})
		})

		Convey("When the window lapses", func() {
			_, err := counter.Incr(ctx, "skips:r1:c1", time.Minute)
			So(err, ShouldBeNil)
			current = current.Add(2 * time.Minute)

			Convey("Then reads see zero", func() {
				n, err := counter.Get(ctx, "skips:r1:c1")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})

			Convey("And the next increment restarts the window", func() {
				n, err := counter.Incr(ctx, "skips:r1:c1", time.Minute)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When a second counter shares the database", func() {
			_, err := counter.Incr(ctx, "turns:c1", time.Hour)
			So(err, ShouldBeNil)
			_, err = counter.Incr(ctx, "turns:c1", time.Hour)
			So(err, ShouldBeNil)

			other := cooldown.NewSQLCounter(db, cooldown.WithSQLClock(clock))
			n, err := other.Get(ctx, "turns:c1")

			Convey("Then both see the same tally", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
			})
		})

		Convey("When purging after windows lapse", func() {
			_, err := counter.Incr(ctx, "skips:r1:c1", time.Minute)
			So(err, ShouldBeNil)
			_, err = counter.Incr(ctx, "turns:c1", time.Hour)
			So(err, ShouldBeNil)
			current = current.Add(10 * time.Minute)

			purged, err := counter.PurgeExpired(ctx)

			Convey("Then only lapsed rows are deleted", func() {
				So(err, ShouldBeNil)
				So(purged, ShouldEqual, 1)

				n, err := counter.Get(ctx, "turns:c1")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func openCounterDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})

	_, err = db.Exec(`CREATE TABLE activity_counters (
		key TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0,
		expires_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create counters table: %v", err)
	}
	return db
}
