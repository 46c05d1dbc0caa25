package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Engine   *engineBlock    `hcl:"engine,block"`
	Analyst  *analystBlock   `hcl:"analyst,block"`
	Output   *outputBlock    `hcl:"output,block"`
	Accounts []*accountBlock `hcl:"account,block"`
	Sources  []*sourceBlock  `hcl:"source,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

// engineBlock is `engine { ... }`.
type engineBlock struct {
	Workers     int    `hcl:"workers,optional"`
	NodeTimeout string `hcl:"node_timeout,optional"`
}

// analystBlock is `analyst { ... }`.
type analystBlock struct {
	Kind    string            `hcl:"kind,optional"`
	URL     string            `hcl:"url,optional"`
	Headers map[string]string `hcl:"headers,optional"`
}

// outputBlock is `output { ... }`.
type outputBlock struct {
	Dir           string   `hcl:"dir,optional"`
	Formats       []string `hcl:"formats,optional"`
	SocketIOURL   string   `hcl:"socketio_url,optional"`
	SocketIOEvent string   `hcl:"socketio_event,optional"`
}

// accountBlock is `account "<id>" { countries = [...] }`.
type accountBlock struct {
	ID        string   `hcl:"id,label"`
	Countries []string `hcl:"countries"`
}

// sourceBlock is `source "<kind>" "<name>" { ... }`.
type sourceBlock struct {
	Kind    string            `hcl:"kind,label"`
	Name    string            `hcl:"name,label"`
	Path    string            `hcl:"path,optional"`
	URL     string            `hcl:"url,optional"`
	Headers map[string]string `hcl:"headers,optional"`
	Driver  string            `hcl:"driver,optional"`
	DSN     string            `hcl:"dsn,optional"`
	Query   string            `hcl:"query,optional"`
	Records hcl.Expression    `hcl:"records,optional"`
}
