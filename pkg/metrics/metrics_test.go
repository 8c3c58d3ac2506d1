package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test-prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the package-level helpers", t, func() {
		Convey("When recording prediction metrics", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordPredictionServed()
					RecordPredictionLatency(12.5)
					RecordSimulationTrials(10000)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording result ingestion metrics", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordEventProcessed()
					RecordEventDuplicate()
					RecordResultApplied()
					RecordResultApplyError()
					RecordResultApplyLatency(3.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording queue and worker metrics", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					UpdateQueueCapacity(1000)
					UpdateQueueSize(10)
					UpdateQueueUtilization(0.01)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordQueueProcessingLatency(0.2)
					UpdateWorkerActiveCount(4)
					UpdateWorkerIdleCount(0)
					UpdateWorkerMessagesPerSecond(120.5)
					RecordWorkerProcessingLatency(1.5)
					RecordWorkerError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP and error metrics", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordHTTPRequest("/api/v1/predictions", "POST", "200")
					RecordHTTPRequestDuration("/api/v1/predictions", "POST", "200", 0.042)
					RecordErrorByComponent("worker", "apply_error")
					RecordErrorByType("apply_error", "high")
					RecordErrorByEndpoint("/api/v1/results", "POST", "bad_request")
				}, ShouldNotPanic)
			})
		})

		Convey("When updating repository and system gauges", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					UpdateRepositoryShardCount(8)
					UpdateRepositoryRecordsTotal(512)
					UpdateRatedEntities(512)
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(42)
					RecordSystemGCPauseTime(0.8)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global registry", t, func() {
		Convey("When gathering after recording", func() {
			RecordPredictionServed()
			families, err := GetRegistry().Gather()

			Convey("Then the registry serves the engine's metrics", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent metric updates", t, func() {
		Convey("When many goroutines record at once", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						RecordEventProcessed()
						UpdateQueueSize(j)
						RecordWorkerProcessingLatency(float64(j))
					}
				}()
			}

			Convey("Then all updates complete without panicking", func() {
				So(func() { wg.Wait() }, ShouldNotPanic)
			})
		})
	})
}
