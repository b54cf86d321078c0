// Package config decodes the declarative YAML surface into plain Go
// structs, validates it, and compiles it into the router core's
// immutable service tree.
package config

// Config is the root YAML document.
type Config struct {
	HTTPServer HTTPServerConfig `yaml:"http_server"`
}

// HTTPServerConfig describes the single listener this binary runs.
type HTTPServerConfig struct {
	Bind    string        `yaml:"bind"`
	TLS     *TLSConfig    `yaml:"tls,omitempty"`
	Service ServiceConfig `yaml:"service"`
}

// TLSConfig is the optional TLS surface; when nil the listener serves
// plain HTTP.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ServiceConfig is a tagged union over the three service kinds,
// decoded by Handler ("static" | "forward" | "router").
type ServiceConfig struct {
	Handler string `yaml:"handler"`

	// handler: static
	SourceDir string `yaml:"source_dir,omitempty"`
	FileIndex string `yaml:"file_index,omitempty"`
	File404   string `yaml:"file_404,omitempty"`

	// handler: forward
	Target *TargetConfig `yaml:"target,omitempty"`

	// handler: router
	Rules    []RouterRuleConfig `yaml:"rules,omitempty"`
	Next     *ServiceConfig     `yaml:"next,omitempty"`
	MaxSteps *int               `yaml:"max_steps,omitempty"`
}

// TargetConfig is a Forward service's upstream.
type TargetConfig struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
}

// RouterRuleConfig is one `when`/`ops`/`on_match` rule.
type RouterRuleConfig struct {
	When    WhenConfig `yaml:"when"`
	Ops     []OpConfig `yaml:"ops"`
	OnMatch string     `yaml:"on_match,omitempty"` // "stop" (default) | "continue" | "restart"
}

// WhenConfig is a rule's match clause.
type WhenConfig struct {
	Host    string             `yaml:"host,omitempty"`
	Path    string             `yaml:"path,omitempty"`
	Scheme  string             `yaml:"scheme,omitempty"`
	Methods []string           `yaml:"methods,omitempty"`
	Headers []HeaderCondConfig `yaml:"headers,omitempty"`
	Queries []QueryCondConfig  `yaml:"queries,omitempty"`
	Cookies []CookieCondConfig `yaml:"cookies,omitempty"`
}

type HeaderCondConfig struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Not     bool   `yaml:"not,omitempty"`
}

type QueryCondConfig struct {
	Key     string `yaml:"key"`
	Pattern string `yaml:"pattern"`
	Not     bool   `yaml:"not,omitempty"`
}

type CookieCondConfig struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Not     bool   `yaml:"not,omitempty"`
}

// OpConfig is one operation, tagged by Op from the closed set:
// set_scheme, set_host, set_port, set_path, header_set, header_add,
// header_delete, header_clear, query_set, query_add, query_delete,
// query_clear, internal_rewrite, redirect, respond, use, branch.
type OpConfig struct {
	Op string `yaml:"op"`

	Scheme string `yaml:"scheme,omitempty"` // set_scheme
	Port   int    `yaml:"port,omitempty"`   // set_port
	Value  string `yaml:"value,omitempty"` // set_host, set_path

	Headers map[string]string `yaml:"headers,omitempty"` // header_set, header_add
	Keys    []string          `yaml:"keys,omitempty"`    // header_delete, query_delete

	Query map[string]string `yaml:"query,omitempty"` // query_set, query_add

	Status   int    `yaml:"status,omitempty"`   // redirect, respond
	Location string `yaml:"location,omitempty"` // redirect
	Body     string `yaml:"body,omitempty"`     // respond

	Use *ServiceConfig `yaml:"use,omitempty"` // use

	When *CondConfig `yaml:"when,omitempty"` // branch
	Then []OpConfig  `yaml:"then,omitempty"` // branch
	Else []OpConfig  `yaml:"else,omitempty"` // branch
}

// CondConfig is a Branch condition tree node, tagged by whichever
// field is populated: All, Any, Not, or Test.
type CondConfig struct {
	All  []CondConfig `yaml:"all,omitempty"`
	Any  []CondConfig `yaml:"any,omitempty"`
	Not  *CondConfig  `yaml:"not,omitempty"`
	Test *TestConfig  `yaml:"test,omitempty"`
}

// TestConfig is a leaf test, tagged by which optional field is set.
type TestConfig struct {
	Var     string   `yaml:"var"`
	Equals  *string  `yaml:"equals,omitempty"`
	In      []string `yaml:"in,omitempty"`
	Present *bool    `yaml:"present,omitempty"`
	Pattern *string  `yaml:"pattern,omitempty"`
}
