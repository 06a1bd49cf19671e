package qnos

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs/storage"
	"github.com/viant/x"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/qnetlab/qnos/extension"
	"github.com/qnetlab/qnos/model/network"
	"github.com/qnetlab/qnos/service/egp/perfect"
	"github.com/qnetlab/qnos/service/meta"
	"github.com/qnetlab/qnos/service/netstack"
	"github.com/qnetlab/qnos/tracing"
)

// Option configures a Service.
type Option func(s *Service)

// WithConfig applies a full configuration document.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithTopology supplies the network definition directly.
func WithTopology(topology *network.Topology) Option {
	return func(s *Service) { s.topology = topology }
}

// WithTopologyLocation loads the network definition through the meta
// service during assembly.
func WithTopologyLocation(location string) Option {
	return func(s *Service) { s.topologyURL = location }
}

// WithMetaService sets the definition loader.
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) { s.metaService = service }
}

// WithMetaBaseURL sets the base location definitions are loaded from.
func WithMetaBaseURL(url string) Option {
	return func(s *Service) { s.metaBaseURL = url }
}

// WithMetaFsOptions sets the meta file system options (for example an
// embedded filesystem).
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) { s.metaFsOptions = options }
}

// WithExtensionTypes seeds the data type registry.
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) { s.extensionTypes = types }
}

// WithPolicy registers a link scheduler factory, overriding the builtin
// for that policy name.
func WithPolicy(policy network.Policy, factory extension.PolicyFactory) Option {
	return func(s *Service) {
		s.policyOverrides = append(s.policyOverrides, policyRegistration{policy: policy, factory: factory})
	}
}

// WithNetstackOptions appends options passed to every node's netstack.
func WithNetstackOptions(options ...netstack.Option) Option {
	return func(s *Service) { s.netstackOptions = append(s.netstackOptions, options...) }
}

// WithEgpOptions appends options passed to the entanglement generation
// service.
func WithEgpOptions(options ...perfect.Option) Option {
	return func(s *Service) { s.egpOptions = append(s.egpOptions, options...) }
}

// WithMetricsRegistry sets the Prometheus registerer metrics register
// against; the default registerer is used otherwise.
func WithMetricsRegistry(registry prometheus.Registerer) Option {
	return func(s *Service) { s.registry = registry }
}

// WithArchiveURL stores terminal process outputs under the given location.
func WithArchiveURL(url string) Option {
	return func(s *Service) { s.archiveURL = url }
}

// WithLogger sets the logger NewContext attaches to run contexts.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithChannelLatency overrides the classical channel latency derived from
// link lengths; useful for tests that want zero-delay messaging.
func WithChannelLatency(d time.Duration) Option {
	return func(s *Service) { s.channelLatency = &d }
}

// WithTracing configures OpenTelemetry tracing for the service. If
// outputFile is empty the stdout exporter is used; otherwise traces are
// written to the supplied file path. The first successful initialisation
// wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter, enabling integrations beyond the builtin stdout exporter.
// The first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
