package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/relocator/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// sequence returns deterministic ids and a clock that advances one second
// per call.
func sequence() []Option {
	var n int
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ticks int
	return []Option{
		WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%03d", n) }),
		WithClock(func() time.Time { ticks++; return base.Add(time.Duration(ticks) * time.Second) }),
	}
}

func calculatorLead(email string) model.Lead {
	in := model.CalculatorInput{HouseholdSize: 2, OriginHousingCost: 1400, MoveTier: model.TierFull, TargetRegionID: "bretagne"}
	return model.Lead{
		Email:  email,
		Name:   "calc",
		Source: model.SourceCalculator,
		Calculator: &model.CalculatorPayload{
			Input:  in,
			Result: model.CalculatorResult{RegionID: "bretagne", RegionName: "Bretagne", MoveTier: model.TierFull, OneTimeMoveCost: 13000, BreakEvenMonths: 20},
		},
	}
}

func quizLead(email string) model.Lead {
	return model.Lead{
		Email:  email,
		Name:   "quiz",
		Source: model.SourceQuiz,
		Quiz: &model.QuizPayload{
			Answers: []model.QuizAnswer{{QuestionID: 1, Choice: "urban"}},
			Matches: []model.MatchResult{{Rank: 1, RegionID: "ile-de-france", RegionName: "Île-de-France", MatchScore: 10, MatchPercent: 20}},
		},
	}
}

// storeContract exercises behavior every driver must share.
func storeContract(newStore func() Store) {
	ctx := context.Background()
	s := newStore()
	Reset(func() { _ = s.Close() })

	calc, err := s.CreateLead(ctx, calculatorLead("a@example.com"))
	So(err, ShouldBeNil)
	quiz, err := s.CreateLead(ctx, quizLead("b@example.com"))
	So(err, ShouldBeNil)
	news, err := s.CreateLead(ctx, model.Lead{Email: "c@example.com", Name: "c", Source: model.SourceNewsletter})
	So(err, ShouldBeNil)

	Convey("Then created leads should carry ids and timestamps", func() {
		So(calc.ID, ShouldNotBeEmpty)
		So(calc.ID, ShouldNotEqual, quiz.ID)
		So(calc.CreatedAt.IsZero(), ShouldBeFalse)
	})

	Convey("When a lead is fetched by id", func() {
		got, err := s.GetLead(ctx, quiz.ID)

		Convey("Then the payload should round-trip", func() {
			So(err, ShouldBeNil)
			So(got.Email, ShouldEqual, "b@example.com")
			So(got.Calculator, ShouldBeNil)
			So(got.Quiz.Matches[0].RegionID, ShouldEqual, "ile-de-france")
			So(got.CreatedAt.Equal(quiz.CreatedAt), ShouldBeTrue)
		})
	})

	Convey("When an unknown id is fetched", func() {
		_, err := s.GetLead(ctx, "missing")
		So(errors.Is(err, ErrNotFound), ShouldBeTrue)
	})

	Convey("When leads are listed", func() {
		all, err := s.ListLeads(ctx, Filter{})
		So(err, ShouldBeNil)

		Convey("Then they should be newest first", func() {
			So(all, ShouldHaveLength, 3)
			So(all[0].ID, ShouldEqual, news.ID)
			So(all[2].ID, ShouldEqual, calc.ID)
			So(all[2].Calculator.Result.OneTimeMoveCost, ShouldEqual, 13000)
		})

		Convey("And a source filter and limit should apply", func() {
			only, err := s.ListLeads(ctx, Filter{Source: model.SourceCalculator})
			So(err, ShouldBeNil)
			So(only, ShouldHaveLength, 1)
			So(only[0].ID, ShouldEqual, calc.ID)

			one, err := s.ListLeads(ctx, Filter{Limit: 1})
			So(err, ShouldBeNil)
			So(one, ShouldHaveLength, 1)
		})

		Convey("And invalid filters should be rejected", func() {
			_, err := s.ListLeads(ctx, Filter{Limit: -1})
			So(errors.Is(err, ErrInvalidLimit), ShouldBeTrue)
			_, err = s.ListLeads(ctx, Filter{Source: "radio"})
			So(errors.Is(err, ErrInvalidFilter), ShouldBeTrue)
		})
	})

	Convey("When emails are recorded", func() {
		_, err := s.RecordEmail(ctx, model.EmailLog{LeadID: calc.ID, Kind: model.EmailWelcome, Status: model.EmailSent})
		So(err, ShouldBeNil)
		_, err = s.RecordEmail(ctx, model.EmailLog{LeadID: calc.ID, Kind: model.EmailCalculatorFollowup, Status: model.EmailFailed, Error: "smtp down"})
		So(err, ShouldBeNil)
		_, err = s.RecordEmail(ctx, model.EmailLog{LeadID: news.ID, Kind: model.EmailWelcome, Status: model.EmailQueued})
		So(err, ShouldBeNil)

		Convey("Then the log should be returned oldest first", func() {
			logs, err := s.EmailsForLead(ctx, calc.ID)
			So(err, ShouldBeNil)
			So(logs, ShouldHaveLength, 2)
			So(logs[0].Kind, ShouldEqual, model.EmailWelcome)
			So(logs[1].Error, ShouldEqual, "smtp down")
		})

		Convey("And stats should aggregate leads and emails", func() {
			st, err := s.Stats(ctx)
			So(err, ShouldBeNil)
			So(st.TotalLeads, ShouldEqual, 3)
			So(st.BySource[model.SourceQuiz], ShouldEqual, 1)
			So(st.Emails[model.EmailSent], ShouldEqual, 1)
			So(st.Emails[model.EmailQueued], ShouldEqual, 1)
			So(st.Emails[model.EmailFailed], ShouldEqual, 1)
		})

		Convey("And an email for an unknown lead should be rejected", func() {
			_, err := s.RecordEmail(ctx, model.EmailLog{LeadID: "ghost", Kind: model.EmailWelcome, Status: model.EmailSent})
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		storeContract(func() Store { return NewMemoryStore(sequence()...) })
	})

	Convey("Given a closed memory store", t, func() {
		s := NewMemoryStore()
		So(s.Close(), ShouldBeNil)
		_, err := s.CreateLead(context.Background(), quizLead("x@example.com"))
		So(errors.Is(err, ErrClosed), ShouldBeTrue)
	})
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store in a temp directory", t, func() {
		dir := t.TempDir()
		storeContract(func() Store {
			s, err := NewSQLiteStore(context.Background(), filepath.Join(dir, "leads.db"), sequence()...)
			So(err, ShouldBeNil)
			return s
		})
	})

	Convey("Given an empty dsn", t, func() {
		_, err := NewSQLiteStore(context.Background(), "")
		So(err, ShouldNotBeNil)
	})
}

func TestStatsStartAtZero(t *testing.T) {
	Convey("Given an empty store", t, func() {
		st, err := NewMemoryStore().Stats(context.Background())
		So(err, ShouldBeNil)

		Convey("Then every source and status should be present", func() {
			So(st.TotalLeads, ShouldEqual, 0)
			So(st.BySource, ShouldHaveLength, len(model.Sources()))
			So(st.Emails, ShouldHaveLength, 3)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given the store factory", t, func() {
		ctx := context.Background()

		Convey("When the memory driver is requested", func() {
			s, err := Open(ctx, "Memory", "")
			So(err, ShouldBeNil)
			_, ok := s.(*MemoryStore)
			So(ok, ShouldBeTrue)
		})

		Convey("When the sqlite driver is requested", func() {
			s, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "open.db"))
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})

		Convey("When an unknown driver is requested", func() {
			_, err := Open(ctx, "mongo", "")
			So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
		})
	})
}
