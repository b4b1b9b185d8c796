package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func calculatorRecord(delta float64) model.LeadRecord {
	return model.LeadRecord{
		ID: "lead-1",
		Lead: model.Lead{
			Email:  "user@example.com",
			Name:   "user",
			Source: model.SourceCalculator,
			Calculator: &model.CalculatorPayload{Result: model.CalculatorResult{
				RegionName:        "Occitanie",
				MoveTier:          model.TierPartial,
				OriginHousingCost: 850 + delta,
				MonthlyCostDelta:  delta,
				OneTimeMoveCost:   6500,
			}},
		},
	}
}

func quizRecord(matches ...model.MatchResult) model.LeadRecord {
	return model.LeadRecord{
		ID: "lead-2",
		Lead: model.Lead{
			Email:  "quiz@example.com",
			Name:   "quiz",
			Source: model.SourceQuiz,
			Quiz:   &model.QuizPayload{Matches: matches},
		},
	}
}

func TestRender(t *testing.T) {
	Convey("Given lead records", t, func() {
		Convey("When the welcome email is rendered", func() {
			subject, body, err := Render("Acme", model.EmailWelcome, calculatorRecord(100))

			Convey("Then it should greet the lead by name", func() {
				So(err, ShouldBeNil)
				So(subject, ShouldContainSubstring, "Acme")
				So(body, ShouldStartWith, "Hi user,")
			})
		})

		Convey("When a calculator follow-up with savings is rendered", func() {
			subject, body, err := Render("Acme", model.EmailCalculatorFollowup, calculatorRecord(650))

			Convey("Then monthly and annual savings should be shown", func() {
				So(err, ShouldBeNil)
				So(subject, ShouldContainSubstring, "Occitanie")
				So(body, ShouldContainSubstring, "approximately 650 per month")
				So(body, ShouldContainSubstring, "That's 7800 per year")
				So(body, ShouldContainSubstring, "Current rent: 1500/month")
				So(body, ShouldContainSubstring, "Estimated rent in Occitanie: 850/month")
				So(body, ShouldContainSubstring, "Move type: partial")
			})
		})

		Convey("When relocating costs more", func() {
			_, body, err := Render("Acme", model.EmailCalculatorFollowup, calculatorRecord(-200))

			Convey("Then the extra cost should be stated instead", func() {
				So(err, ShouldBeNil)
				So(body, ShouldContainSubstring, "200 more per month")
				So(body, ShouldNotContainSubstring, "save you")
			})
		})

		Convey("When a quiz follow-up with two matches is rendered", func() {
			subject, body, err := Render("Acme", model.EmailQuizFollowup, quizRecord(
				model.MatchResult{Rank: 1, RegionName: "Bretagne", Description: "Celtic coast.", MatchPercent: 38},
				model.MatchResult{Rank: 2, RegionName: "Occitanie", MatchPercent: 30},
			))

			Convey("Then the top region and padded ranking should be shown", func() {
				So(err, ShouldBeNil)
				So(subject, ShouldEqual, "Your perfect region: Bretagne")
				So(body, ShouldContainSubstring, "1. Bretagne - 38% match")
				So(body, ShouldContainSubstring, "2. Occitanie - 30% match")
				So(body, ShouldContainSubstring, "3. N/A - 0% match")
				So(body, ShouldContainSubstring, "Celtic coast.")
			})
		})

		Convey("When a quiz follow-up has no matches", func() {
			_, body, err := Render("Acme", model.EmailQuizFollowup, quizRecord())
			So(err, ShouldBeNil)
			So(body, ShouldContainSubstring, fallbackDescription)
		})

		Convey("When an unknown kind is rendered", func() {
			_, _, err := Render("Acme", "reminder", calculatorRecord(1))
			So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)
		})
	})
}

func TestKindsFor(t *testing.T) {
	Convey("Every lead gets a welcome plus its follow-up", t, func() {
		So(KindsFor(calculatorRecord(1).Lead), ShouldResemble, []model.EmailKind{model.EmailWelcome, model.EmailCalculatorFollowup})
		So(KindsFor(quizRecord().Lead), ShouldResemble, []model.EmailKind{model.EmailWelcome, model.EmailQuizFollowup})
		So(KindsFor(model.Lead{Source: model.SourceNewsletter}), ShouldResemble, []model.EmailKind{model.EmailWelcome})
	})
}

type fakeSender struct {
	status model.EmailStatus
	err    error
	sent   []Message
}

func (f *fakeSender) Send(_ context.Context, msg Message) (model.EmailStatus, error) {
	f.sent = append(f.sent, msg)
	return f.status, f.err
}

func (f *fakeSender) Name() string { return "fake" }

func TestMailer(t *testing.T) {
	Convey("Given a mailer over a fake sender", t, func() {
		fs := &fakeSender{status: model.EmailSent}
		m := NewMailer(fs, WithBrand("Acme"), WithFrom("team@acme.test"))
		job := model.EmailJob{Lead: calculatorRecord(300), Kind: model.EmailWelcome}

		Convey("When delivery succeeds", func() {
			entry := m.Deliver(context.Background(), job)

			Convey("Then a sent entry should be returned", func() {
				So(entry.Status, ShouldEqual, model.EmailSent)
				So(entry.LeadID, ShouldEqual, "lead-1")
				So(entry.Error, ShouldBeEmpty)
				So(fs.sent[0].From, ShouldEqual, "team@acme.test")
				So(fs.sent[0].To, ShouldEqual, "user@example.com")
			})
		})

		Convey("When the sender fails", func() {
			fs.err = errors.New("relay refused")
			entry := m.Deliver(context.Background(), job)

			Convey("Then a failed entry should carry the error", func() {
				So(entry.Status, ShouldEqual, model.EmailFailed)
				So(entry.Error, ShouldContainSubstring, "relay refused")
			})
		})

		Convey("When the sender only queues", func() {
			fs.status = model.EmailQueued
			entry := m.Deliver(context.Background(), job)
			So(entry.Status, ShouldEqual, model.EmailQueued)
			So(entry.Error, ShouldContainSubstring, "queued for manual send")
		})

		Convey("When the job kind is unknown", func() {
			job.Kind = "reminder"
			entry := m.Deliver(context.Background(), job)
			So(entry.Status, ShouldEqual, model.EmailFailed)
			So(fs.sent, ShouldBeEmpty)
		})
	})
}

func TestSMTPSender(t *testing.T) {
	Convey("Given an smtp sender with a captured transport", t, func() {
		s := NewSMTPSender("smtp.example.com", 0, "user", "secret")
		s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
		var (
			gotAddr string
			gotTo   []string
			gotMsg  string
		)
		s.sendMail = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg = addr, to, string(msg)
			return nil
		}

		Convey("When a message is sent", func() {
			status, err := s.Send(context.Background(), Message{From: "a@x.test", To: "b@y.test", Subject: "Hi", Body: "line1\nline2"})

			Convey("Then it should go to the default submission port with CRLF framing", func() {
				So(err, ShouldBeNil)
				So(status, ShouldEqual, model.EmailSent)
				So(gotAddr, ShouldEqual, "smtp.example.com:587")
				So(gotTo, ShouldResemble, []string{"b@y.test"})
				So(gotMsg, ShouldContainSubstring, "Subject: Hi\r\n")
				So(gotMsg, ShouldEndWith, "\r\n\r\nline1\r\nline2")
				So(s.Name(), ShouldEqual, ProviderSMTP)
			})
		})

		Convey("When the relay fails", func() {
			s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("554 rejected") }
			status, err := s.Send(context.Background(), Message{To: "b@y.test"})
			So(status, ShouldEqual, model.EmailFailed)
			So(errors.Is(err, ErrSend), ShouldBeTrue)
		})

		Convey("When the context is already done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			status, err := s.Send(ctx, Message{To: "b@y.test"})
			So(status, ShouldEqual, model.EmailFailed)
			So(err, ShouldNotBeNil)
		})
	})
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	return &ses.SendEmailOutput{}, f.err
}

func TestSESSender(t *testing.T) {
	Convey("Given an SES sender over a fake client", t, func() {
		client := &fakeSES{}
		s := &SESSender{client: client}

		Convey("When a message is sent", func() {
			status, err := s.Send(context.Background(), Message{From: "a@x.test", To: "b@y.test", Subject: "Hi", Body: "text"})

			Convey("Then the SES request should carry the message", func() {
				So(err, ShouldBeNil)
				So(status, ShouldEqual, model.EmailSent)
				So(*client.input.Source, ShouldEqual, "a@x.test")
				So(client.input.Destination.ToAddresses, ShouldResemble, []string{"b@y.test"})
				So(*client.input.Message.Body.Text.Data, ShouldEqual, "text")
			})
		})

		Convey("When SES rejects the message", func() {
			client.err = errors.New("MessageRejected")
			_, err := s.Send(context.Background(), Message{To: "b@y.test"})
			So(errors.Is(err, ErrSend), ShouldBeTrue)
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given provider configurations", t, func() {
		ctx := context.Background()

		Convey("When no provider is set", func() {
			s, err := New(ctx, Config{}, logger.Nop())
			So(err, ShouldBeNil)
			So(s.Name(), ShouldEqual, ProviderLog)
			status, err := s.Send(ctx, Message{To: "a@b.c"})
			So(err, ShouldBeNil)
			So(status, ShouldEqual, model.EmailQueued)
		})

		Convey("When smtp is selected without a host", func() {
			s, err := New(ctx, Config{Provider: "SMTP"}, logger.Nop())
			So(err, ShouldBeNil)
			So(s.Name(), ShouldEqual, ProviderLog)
		})

		Convey("When smtp is fully configured", func() {
			s, err := New(ctx, Config{Provider: "smtp", SMTPHost: "mail", SMTPPort: 25, SMTPUser: "u"}, logger.Nop())
			So(err, ShouldBeNil)
			So(s.Name(), ShouldEqual, ProviderSMTP)
			So(strings.HasSuffix(s.(*SMTPSender).addr, ":25"), ShouldBeTrue)
		})

		Convey("When an unknown provider is selected", func() {
			_, err := New(ctx, Config{Provider: "pigeon"}, logger.Nop())
			So(errors.Is(err, ErrUnknownProvider), ShouldBeTrue)
		})
	})
}
