package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

// value reads the current value of a counter or gauge.
func value(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return -1
	}
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func TestNewManager(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When a manager is created with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.matches.Inc()

			Convey("Then its collectors should be registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_matches_total"], ShouldBeTrue)
			})

			Convey("And constant labels should be attached", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				for _, f := range families {
					if f.GetName() != "test_unit_matches_total" {
						continue
					}
					So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
				}
			})
		})

		Convey("When empty options are given", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults should be kept", func() {
				So(m.namespace, ShouldEqual, "relocator")
				So(m.subsystem, ShouldEqual, "engine")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When an estimate with a notional break-even is recorded", func() {
			before := value(globalManager.estimates.WithLabelValues("minimal"))
			notional := value(globalManager.notionalBreakEven)
			RecordEstimate("minimal", true)

			Convey("Then both counters should advance", func() {
				So(value(globalManager.estimates.WithLabelValues("minimal")), ShouldEqual, before+1)
				So(value(globalManager.notionalBreakEven), ShouldEqual, notional+1)
			})
		})

		Convey("When gate and lead events are recorded", func() {
			created := value(globalManager.leadsCreated.WithLabelValues("quiz"))
			RecordSessionCreated("quiz")
			RecordSessionReleased("quiz")
			RecordLeadCreated("quiz")
			RecordValidationFailure()
			RecordUpstreamFailure()

			Convey("Then the lead counter should advance by source", func() {
				So(value(globalManager.leadsCreated.WithLabelValues("quiz")), ShouldEqual, created+1)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(10)
			UpdateQueueUtilization(0.7)
			UpdateCatalogRegions(6)
			UpdateWorkerCount(4)

			Convey("Then they should hold the last value", func() {
				So(value(globalManager.queueSize), ShouldEqual, 7)
				So(value(globalManager.queueUtilization), ShouldEqual, 0.7)
				So(value(globalManager.catalogRegions), ShouldEqual, 6)
				So(value(globalManager.workerCount), ShouldEqual, 4)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordMatch()
				RecordComputeLatency("estimate", 0.2)
				RecordEmail("welcome", "queued")
				RecordEmailSendLatency(12)
				RecordCatalogReload("ok")
				RecordHTTPRequest("/api/estimate", "POST", "201")
				RecordHTTPRequestDuration("/api/estimate", "POST", "201", 1.5)
				RecordRateLimited("/api/leads/quiz")
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(2)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordErrorByComponent("mail", "send")
				RecordErrorByEndpoint("/api/stats", "GET", "internal_error")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry should be gatherable", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
