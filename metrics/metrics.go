package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/movemntdev/movement-cli-e2e/types"
)

const (
	MetricsNamespace = "movement_cli_e2e"
)

var (
	Debug                bool = true
	validResults              = []types.TestStatus{types.TestStatusPass, types.TestStatusFail}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	// Registry holds every metric of this package. It is what the metrics
	// server exposes.
	Registry = prometheus.NewRegistry()
	factory  = promauto.With(Registry)

	errorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	testsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of CLI test case outcomes",
	}, []string{
		"network_name",
		"run_id",
		"name",
		"result",
	})

	testDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "test_duration_seconds",
		Help:      "Duration of a CLI test case",
	}, []string{
		"network_name",
		"run_id",
		"name",
	})

	runResults = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of a CLI test run",
	}, []string{
		"network_name",
		"run_id",
		"result",
	})

	runTestsPassed = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_passed",
		Help:      "Number of passed CLI test cases in a run",
	}, []string{
		"network_name",
		"run_id",
	})

	runTestsFailed = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_failed",
		Help:      "Number of failed CLI test cases in a run",
	}, []string{
		"network_name",
		"run_id",
	})

	runDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of a CLI test run",
	}, []string{
		"network_name",
		"run_id",
	})

	startupDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "node_startup_duration_seconds",
		Help:      "Time taken for the local testnet to become ready",
	}, []string{
		"network_name",
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordTest(network string, runID string, name string, result types.TestStatus, duration time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordTest - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "tests_total",
			"network", network,
			"run_id", runID,
			"test", name,
			"result", result)
	}
	testsTotal.WithLabelValues(network, runID, name, string(result)).Inc()
	testDuration.WithLabelValues(network, runID, name).Set(duration.Seconds())
}

func RecordRun(
	network string,
	runID string,
	result string,
	passed int,
	failed int,
	duration time.Duration,
) {
	runResults.WithLabelValues(network, runID, result).Set(1)
	runTestsPassed.WithLabelValues(network, runID).Set(float64(passed))
	runTestsFailed.WithLabelValues(network, runID).Set(float64(failed))
	runDuration.WithLabelValues(network, runID).Set(duration.Seconds())
}

func RecordStartup(network string, runID string, duration time.Duration) {
	startupDuration.WithLabelValues(network, runID).Set(duration.Seconds())
}

func isValidResult(result types.TestStatus) bool {
	return slices.Contains(validResults, result)
}
