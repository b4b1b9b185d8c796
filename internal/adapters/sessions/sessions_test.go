package sessions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/relocator/internal/domain/gate"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

func quizSession() *gate.Session {
	s := gate.NewQuizSession(
		[]model.QuizAnswer{{QuestionID: 2, Choice: "oceanic"}},
		[]model.MatchResult{{Rank: 1, RegionID: "bretagne", RegionName: "Bretagne", MatchScore: 10, MatchPercent: 20}},
	)
	_ = s.Hold()
	return s
}

// sessionContract exercises behavior every driver must share.
func sessionContract(st Store) {
	ctx := context.Background()

	Convey("When a session is saved and loaded", func() {
		s := quizSession()
		So(st.Save(ctx, s), ShouldBeNil)
		got, err := st.Load(ctx, s.ID)

		Convey("Then it should round-trip with its state", func() {
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, s.ID)
			So(got.State, ShouldEqual, gate.StateGated)
			So(got.Quiz.Matches[0].RegionID, ShouldEqual, "bretagne")
		})

		Convey("And later mutations should not leak into the store", func() {
			s.State = gate.StateReleased
			again, err := st.Load(ctx, s.ID)
			So(err, ShouldBeNil)
			So(again.State, ShouldEqual, gate.StateGated)
		})

		Convey("And saving again should replace the stored value", func() {
			s.State = gate.StateReleased
			s.Releases = 1
			So(st.Save(ctx, s), ShouldBeNil)
			again, err := st.Load(ctx, s.ID)
			So(err, ShouldBeNil)
			So(again.State, ShouldEqual, gate.StateReleased)
			So(again.Releases, ShouldEqual, 1)
		})
	})

	Convey("When an unknown id is loaded", func() {
		_, err := st.Load(ctx, "missing")
		So(errors.Is(err, ErrNotFound), ShouldBeTrue)
	})

	Convey("When a session without id is saved", func() {
		So(errors.Is(st.Save(ctx, &gate.Session{}), ErrInvalidID), ShouldBeTrue)
		So(errors.Is(st.Save(ctx, nil), ErrInvalidID), ShouldBeTrue)
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory session store", t, func() {
		sessionContract(NewMemoryStore())
	})

	Convey("Given a memory store with a manual clock", t, func() {
		now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		m := NewMemoryStore(WithTTL(time.Minute), WithClock(func() time.Time { return now }))
		ctx := context.Background()
		s := quizSession()
		So(m.Save(ctx, s), ShouldBeNil)

		Convey("When the TTL elapses", func() {
			now = now.Add(time.Minute)
			_, err := m.Load(ctx, s.ID)

			Convey("Then the session should be gone", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(m.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the session is saved again before expiry", func() {
			now = now.Add(50 * time.Second)
			So(m.Save(ctx, s), ShouldBeNil)
			now = now.Add(50 * time.Second)

			Convey("Then its TTL should restart", func() {
				_, err := m.Load(ctx, s.ID)
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a memory store bounded to three sessions", t, func() {
		m := NewMemoryStore(WithCapacity(3))
		ctx := context.Background()
		ids := make([]string, 0, 5)
		for i := 0; i < 5; i++ {
			s := quizSession()
			s.ID = fmt.Sprintf("s-%d", i)
			So(m.Save(ctx, s), ShouldBeNil)
			ids = append(ids, s.ID)
		}

		Convey("Then the oldest sessions should have been evicted", func() {
			So(m.Len(), ShouldEqual, 3)
			_, err := m.Load(ctx, ids[0])
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = m.Load(ctx, ids[1])
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = m.Load(ctx, ids[4])
			So(err, ShouldBeNil)
		})

		Convey("When an old session is saved again", func() {
			s := quizSession()
			s.ID = ids[2]
			So(m.Save(ctx, s), ShouldBeNil)
			extra := quizSession()
			extra.ID = "s-new"
			So(m.Save(ctx, extra), ShouldBeNil)

			Convey("Then it should count as newest and survive", func() {
				_, err := m.Load(ctx, ids[2])
				So(err, ShouldBeNil)
				_, err = m.Load(ctx, ids[3])
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the store is closed", func() {
			So(m.Close(), ShouldBeNil)
			So(m.Len(), ShouldEqual, 0)
		})
	})
}

func TestRedisStore(t *testing.T) {
	Convey("Given a redis session store backed by miniredis", t, func() {
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		Reset(mr.Close)

		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		st := NewRedisStoreWithClient(client, WithTTL(time.Hour), WithKeyPrefix("test:"))
		Reset(func() { _ = st.Close() })

		sessionContract(st)

		Convey("When a session is saved", func() {
			s := quizSession()
			So(st.Save(context.Background(), s), ShouldBeNil)

			Convey("Then the key should carry the prefix and TTL", func() {
				So(mr.Exists("test:"+s.ID), ShouldBeTrue)
				So(mr.TTL("test:"+s.ID), ShouldEqual, time.Hour)
			})

			Convey("And it should expire with the key", func() {
				mr.FastForward(2 * time.Hour)
				_, err := st.Load(context.Background(), s.ID)
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unreachable redis", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := NewRedisStore(ctx, RedisConfig{Addr: "127.0.0.1:1"})
		So(err, ShouldNotBeNil)
	})
}

func TestOpen(t *testing.T) {
	Convey("Given the store factory", t, func() {
		ctx := context.Background()

		Convey("When the memory driver is requested", func() {
			st, err := Open(ctx, "", RedisConfig{}, WithCapacity(10))
			So(err, ShouldBeNil)
			_, ok := st.(*MemoryStore)
			So(ok, ShouldBeTrue)
		})

		Convey("When the redis driver is requested", func() {
			mr, err := miniredis.Run()
			So(err, ShouldBeNil)
			defer mr.Close()
			st, err := Open(ctx, "REDIS", RedisConfig{Addr: mr.Addr()})
			So(err, ShouldBeNil)
			So(st.Close(), ShouldBeNil)
		})

		Convey("When an unknown driver is requested", func() {
			_, err := Open(ctx, "etcd", RedisConfig{})
			So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
		})
	})
}
