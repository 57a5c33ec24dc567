package snmp

import (
	"log/slog"
	"time"
)

// ClientOptions configures a Client. See NewClientOptions for defaults,
// which match the reference implementation's constructor.
type ClientOptions struct {
	// Port is the remote agent's UDP port.
	Port int
	// Community is the SNMPv2c community string sent with every request.
	Community string
	// Timeout is the per-attempt wait for a reply before retrying.
	Timeout time.Duration
	// Retries is the number of send attempts before giving up with
	// ErrTimeout.
	Retries int
	// NonRepeaters is the default non-repeaters for GetBulk/BulkWalk when
	// the call site does not override it.
	NonRepeaters int
	// MaxRepetitions is the default max-repetitions for GetBulk/BulkWalk.
	MaxRepetitions int
	// LocalAddr, if non-empty, is the local host:port the client's socket
	// binds to. Empty lets the OS choose.
	LocalAddr string
	// ValidateSourceAddr, when true (the default), requires a reply to
	// originate from the same (host, port) the request was sent to;
	// replies from any other address are dropped. When false, replies are
	// correlated by request-id alone.
	ValidateSourceAddr bool
	// Logger receives Debug-level retry/send logs. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// NewClientOptions returns ClientOptions populated with the reference
// defaults: port 161, community "public", timeout 1s, 6 retries,
// non_repeaters=0, max_repetitions=10, source-address validation on.
func NewClientOptions() *ClientOptions {
	return &ClientOptions{
		Port:               DefaultPort,
		Community:          DefaultCommunity,
		Timeout:            DefaultTimeout,
		Retries:            DefaultRetries,
		NonRepeaters:       DefaultNonRepeaters,
		MaxRepetitions:     DefaultMaxRepetitions,
		ValidateSourceAddr: true,
		Logger:             slog.Default(),
	}
}

// Option is a functional option for configuring a Client.
type Option func(*ClientOptions)

// WithPort sets the remote agent port.
func WithPort(port int) Option {
	return func(o *ClientOptions) { o.Port = port }
}

// WithCommunity sets the community string.
func WithCommunity(community string) Option {
	return func(o *ClientOptions) { o.Community = community }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *ClientOptions) { o.Timeout = d }
}

// WithRetries sets the number of send attempts.
func WithRetries(n int) Option {
	return func(o *ClientOptions) { o.Retries = n }
}

// WithNonRepeaters sets the default GetBulk non-repeaters.
func WithNonRepeaters(n int) Option {
	return func(o *ClientOptions) { o.NonRepeaters = n }
}

// WithMaxRepetitions sets the default GetBulk max-repetitions.
func WithMaxRepetitions(n int) Option {
	return func(o *ClientOptions) { o.MaxRepetitions = n }
}

// WithLocalAddr binds the client's socket to a specific local address.
func WithLocalAddr(addr string) Option {
	return func(o *ClientOptions) { o.LocalAddr = addr }
}

// WithValidateSourceAddr toggles source-address validation on replies.
func WithValidateSourceAddr(enabled bool) Option {
	return func(o *ClientOptions) { o.ValidateSourceAddr = enabled }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *ClientOptions) { o.Logger = logger }
}

// TrapListenerOptions configures a TrapServer.
type TrapListenerOptions struct {
	// Host is the local address to bind to (default "0.0.0.0").
	Host string
	// Port is the local UDP port to bind to (default 162).
	Port int
	// Communities, when non-empty, is the allow-list of accepted
	// community strings; an empty list accepts every community.
	Communities []string
	// Logger receives Info logs on start/stop, Warn logs on malformed or
	// mismatched-community datagrams, and Debug logs on dropped non-trap
	// datagrams. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewTrapListenerOptions returns TrapListenerOptions with the reference
// defaults: 0.0.0.0:162, no community filtering.
func NewTrapListenerOptions() *TrapListenerOptions {
	return &TrapListenerOptions{
		Host:   "0.0.0.0",
		Port:   DefaultTrapPort,
		Logger: slog.Default(),
	}
}

// TrapListenerOption is a functional option for configuring a TrapServer.
type TrapListenerOption func(*TrapListenerOptions)

// WithListenHost sets the local bind host.
func WithListenHost(host string) TrapListenerOption {
	return func(o *TrapListenerOptions) { o.Host = host }
}

// WithListenPort sets the local bind port.
func WithListenPort(port int) TrapListenerOption {
	return func(o *TrapListenerOptions) { o.Port = port }
}

// WithTrapCommunities sets the community allow-list.
func WithTrapCommunities(communities []string) TrapListenerOption {
	return func(o *TrapListenerOptions) { o.Communities = communities }
}

// WithTrapLogger sets the trap listener's logger.
func WithTrapLogger(logger *slog.Logger) TrapListenerOption {
	return func(o *TrapListenerOptions) { o.Logger = logger }
}
