// Package msgcat holds the client-facing message texts as YAML templates.
package msgcat

import (
    "embed"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "sync"
    "text/template"

    yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

const defaultFile = "messages.en.yaml"

// Catalog maps dot keys ("room.full") to compiled templates. Embedded
// defaults load first; files from an override directory replace them.
type Catalog struct {
    mu     sync.RWMutex
    tpls   map[string]*template.Template
    origin map[string]string // key → file that last set it
}

// New loads the embedded defaults and then applies overrides from dir if provided.
func New(overrideDir string) (*Catalog, error) {
    c := &Catalog{tpls: make(map[string]*template.Template), origin: make(map[string]string)}

    raw, err := defaultFiles.ReadFile(defaultFile)
    if err != nil {
        return nil, fmt.Errorf("read embedded messages: %w", err)
    }
    entries, err := parse(defaultFile, raw)
    if err != nil {
        return nil, err
    }
    c.apply(defaultFile, entries)

    if strings.TrimSpace(overrideDir) != "" {
        if err := c.applyDir(overrideDir); err != nil {
            return nil, err
        }
    }
    return c, nil
}

// applyDir reads *.yaml / *.yml in name order. Two override files setting
// the same key is an error; overriding an embedded default is not.
func (c *Catalog) applyDir(dir string) error {
    files, err := os.ReadDir(dir)
    if err != nil {
        return fmt.Errorf("read message dir: %w", err)
    }
    names := make([]string, 0, len(files))
    for _, f := range files {
        ext := strings.ToLower(filepath.Ext(f.Name()))
        if !f.IsDir() && (ext == ".yaml" || ext == ".yml") {
            names = append(names, f.Name())
        }
    }
    sort.Strings(names)

    claimed := make(map[string]string)
    for _, name := range names {
        raw, err := os.ReadFile(filepath.Join(dir, name))
        if err != nil { return fmt.Errorf("read %s: %w", name, err) }
        entries, err := parse(name, raw)
        if err != nil { return err }
        for k := range entries {
            if prev, ok := claimed[k]; ok {
                return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
            }
            claimed[k] = name
        }
        c.apply(name, entries)
    }
    return nil
}

func (c *Catalog) apply(file string, entries map[string]*template.Template) {
    c.mu.Lock()
    defer c.mu.Unlock()
    for k, t := range entries {
        c.tpls[k] = t
        c.origin[k] = file
    }
}

// parse walks the YAML node tree so errors can name the offending line.
// Only string leaves are accepted; each is compiled up front.
func parse(file string, raw []byte) (map[string]*template.Template, error) {
    var doc yaml.Node
    if err := yaml.Unmarshal(raw, &doc); err != nil {
        return nil, fmt.Errorf("parse %s: %w", file, err)
    }
    out := make(map[string]*template.Template)
    if len(doc.Content) == 0 {
        return out, nil
    }
    if err := walk(file, doc.Content[0], "", out); err != nil {
        return nil, err
    }
    return out, nil
}

func walk(file string, n *yaml.Node, prefix string, out map[string]*template.Template) error {
    switch n.Kind {
    case yaml.MappingNode:
        for i := 0; i+1 < len(n.Content); i += 2 {
            key := n.Content[i].Value
            if prefix != "" {
                key = prefix + "." + key
            }
            if err := walk(file, n.Content[i+1], key, out); err != nil {
                return err
            }
        }
        return nil
    case yaml.ScalarNode:
        if prefix == "" {
            return fmt.Errorf("%s:%d: value without key", file, n.Line)
        }
        if n.Tag == "!!null" {
            return nil
        }
        if n.Tag != "!!str" {
            return fmt.Errorf("%s:%d: %s must be a string, got %s", file, n.Line, prefix, n.Tag)
        }
        t, err := template.New(prefix).Option("missingkey=error").Parse(n.Value)
        if err != nil {
            return fmt.Errorf("%s:%d: %w", file, n.Line, err)
        }
        out[prefix] = t
        return nil
    default:
        return fmt.Errorf("%s:%d: unsupported node at %q", file, n.Line, prefix)
    }
}

// Render executes the template for key. Unknown keys and missing template
// fields are errors; use Text when a fallback is acceptable.
func (c *Catalog) Render(key string, data any) (string, error) {
    c.mu.RLock()
    t, ok := c.tpls[strings.TrimSpace(key)]
    c.mu.RUnlock()
    if !ok {
        return "", fmt.Errorf("template not found: %s", key)
    }
    var b strings.Builder
    if err := t.Execute(&b, data); err != nil { return "", err }
    return b.String(), nil
}

// Text renders key and falls back to the key itself on any error.
func (c *Catalog) Text(key string, data any) string {
    if c == nil { return key }
    out, err := c.Render(key, data)
    if err != nil { return key }
    return out
}

// Require fails when any of keys is missing, naming all of them.
func (c *Catalog) Require(keys ...string) error {
    c.mu.RLock()
    defer c.mu.RUnlock()
    var missing []string
    for _, k := range keys {
        if _, ok := c.tpls[k]; !ok {
            missing = append(missing, k)
        }
    }
    if len(missing) > 0 {
        return fmt.Errorf("missing message keys: %s", strings.Join(missing, ", "))
    }
    return nil
}

// Source reports which file supplied key.
func (c *Catalog) Source(key string) (string, bool) {
    c.mu.RLock()
    defer c.mu.RUnlock()
    f, ok := c.origin[key]
    return f, ok
}

// Keys lists loaded keys in sorted order.
func (c *Catalog) Keys() []string {
    c.mu.RLock()
    keys := make([]string, 0, len(c.tpls))
    for k := range c.tpls { keys = append(keys, k) }
    c.mu.RUnlock()
    sort.Strings(keys)
    return keys
}
