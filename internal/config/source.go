package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/trellisfw/trellis-monitor/internal/helper"
	"github.com/trellisfw/trellis-monitor/pkg/probe"
	"gopkg.in/yaml.v3"
)

// DirSource loads probe descriptors from a directory of modules. A module is
// a .hcl, .yaml or .yml file, or a sub-directory holding such files.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: strings.TrimRight(dir, "/")}
}

// Load reads every module in lexical order. Later definitions of a name
// replace earlier ones. Modules that fail to parse are skipped.
func (s *DirSource) Load() (map[string]probe.Descriptor, error) {
	modules, err := findModules(s.Dir)
	if err != nil {
		return nil, err
	}

	out := make(map[string]probe.Descriptor)
	for _, m := range modules {
		descs, err := loadModule(m)
		if err != nil {
			log.WithFields(log.Fields{"kind": "registry", "module": m}).WithError(err).Warn("skipping probe module")
			continue
		}

		for _, d := range descs {
			if prev, ok := out[d.Name]; ok {
				log.WithFields(log.Fields{"kind": "registry", "name": d.Name, "module": m, "previous": prev.Kind}).Debug("probe redefined")
			}
			out[d.Name] = d
		}
	}

	log.WithFields(log.Fields{"kind": "registry", "dir": s.Dir, "modules": len(modules), "probes": len(out)}).Info("loaded probe definitions")
	return out, nil
}

// loadModule loads path as a plain file and retries it as a directory
// module when that is not possible.
func loadModule(path string) ([]probe.Descriptor, error) {
	descs, err := loadFile(path)
	if err == nil {
		return descs, nil
	}

	info, statErr := os.Stat(path)
	if statErr != nil || !info.IsDir() {
		return nil, err
	}

	files, err := findInPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read module directory %s", path)
	}

	var all []probe.Descriptor
	for _, f := range files {
		descs, err := loadFile(f)
		if err != nil {
			log.WithFields(log.Fields{"kind": "registry", "module": f}).WithError(err).Warn("skipping probe file")
			continue
		}
		all = append(all, descs...)
	}
	return all, nil
}

func loadFile(path string) ([]probe.Descriptor, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var descs []probe.Descriptor
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		var m hclModule
		if err := hcl.Unmarshal(contents, &m); err != nil {
			return nil, errors.Wrapf(err, "could not parse probe file %s", path)
		}
		descs = m.Probes
	case ".yaml", ".yml":
		var m yamlModule
		if err := yaml.Unmarshal(contents, &m); err != nil {
			return nil, errors.Wrapf(err, "could not parse probe file %s", path)
		}
		for name, d := range m.Probes {
			d.Name = name
			descs = append(descs, d)
		}
	default:
		return nil, errors.Errorf("unsupported probe file %s", path)
	}

	for i := range descs {
		if descs[i].Name == "" {
			return nil, errors.Errorf("probe without name in %s", path)
		}
		descs[i].Description = helper.ResolveEnv(descs[i].Description)
		descs[i].Domain = helper.ResolveEnv(descs[i].Domain)
		descs[i].Token = helper.ResolveEnv(descs[i].Token)
	}

	log.WithFields(log.Fields{"kind": "registry", "file": path, "probes": len(descs)}).Debug("found probe file")
	return descs, nil
}
