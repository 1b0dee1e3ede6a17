package config

import (
	"github.com/trellisfw/trellis-monitor/pkg/probe"
)

// hclModule is the content of one HCL probe file:
//
//	probe "bookmarks" {
//	  description = "Is bookmarks up for our token?"
//	  kind        = "pathTest"
//	  params {
//	    path = "/bookmarks"
//	  }
//	}
type hclModule struct {
	Probes []probe.Descriptor `hcl:"probe"`
}

// yamlModule is the content of one YAML probe file:
//
//	probes:
//	  bookmarks:
//	    description: Is bookmarks up for our token?
//	    kind: pathTest
//	    params:
//	      path: /bookmarks
type yamlModule struct {
	Probes map[string]probe.Descriptor `yaml:"probes"`
}
