package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	mcpStdio bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMCPStdio makes Run serve MCP tools on stdio instead of the HTTP server.
func WithMCPStdio() Option {
	return func(a *application) {
		a.mcpStdio = true
	}
}
