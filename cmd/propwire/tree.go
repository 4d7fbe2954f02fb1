package main

import (
	"math"
	"math/big"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/propwire"
)

// Custom YAML tags mark values plain YAML cannot tell apart.
const (
	yamlUndefined = "!undefined"
	yamlMap       = "!map"
	yamlSet       = "!set"
	yamlRegExp    = "!regexp"
	yamlBigInt    = "!bigint"
	yamlURL       = "!url"
	yamlU8        = "!u8"
	yamlU16       = "!u16"
	yamlU32       = "!u32"
)

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// yamlTree renders decoded props, object keys sorted.
func yamlTree(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return scalar("!!null", "null")
	case propwire.UndefinedType:
		return scalar(yamlUndefined, "")
	case bool:
		return scalar("!!bool", strconv.FormatBool(x))
	case string:
		return scalar("!!str", x)
	case float64:
		return floatNode(x)
	case time.Time:
		return scalar("!!timestamp", x.UTC().Format(time.RFC3339Nano))
	case *regexp.Regexp:
		return scalar(yamlRegExp, x.String())
	case *big.Int:
		return scalar(yamlBigInt, x.String())
	case *url.URL:
		return scalar(yamlURL, x.String())
	case []uint8:
		return uintSeq(yamlU8, len(x), func(i int) uint64 { return uint64(x[i]) })
	case []uint16:
		return uintSeq(yamlU16, len(x), func(i int) uint64 { return uint64(x[i]) })
	case []uint32:
		return uintSeq(yamlU32, len(x), func(i int) uint64 { return uint64(x[i]) })
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range x {
			n.Content = append(n.Content, yamlTree(e))
		}
		return n
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			n.Content = append(n.Content, scalar("!!str", k), yamlTree(x[k]))
		}
		return n
	case *propwire.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: yamlMap}
		x.Range(func(k, v any) bool {
			n.Content = append(n.Content, yamlTree(k), yamlTree(v))
			return true
		})
		return n
	case *propwire.Set:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: yamlSet}
		for _, e := range x.Values() {
			n.Content = append(n.Content, yamlTree(e))
		}
		return n
	}
	return scalar("!!str", "<unknown>")
}

func floatNode(f float64) *yaml.Node {
	switch {
	case math.IsNaN(f):
		return scalar("!!float", ".nan")
	case math.IsInf(f, 1):
		return scalar("!!float", ".inf")
	case math.IsInf(f, -1):
		return scalar("!!float", "-.inf")
	case f == math.Trunc(f) && math.Abs(f) < 1<<53:
		return scalar("!!int", strconv.FormatInt(int64(f), 10))
	}
	return scalar("!!float", strconv.FormatFloat(f, 'g', -1, 64))
}

func uintSeq(tag string, n int, at func(int) uint64) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: tag, Style: yaml.FlowStyle}
	for i := 0; i < n; i++ {
		seq.Content = append(seq.Content, scalar("!!int", strconv.FormatUint(at(i), 10)))
	}
	return seq
}
