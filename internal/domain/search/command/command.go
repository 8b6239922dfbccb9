// Package command knows the command vocabulary of the search language.
package command

import (
	"sort"
	"strings"
)

// Count is a command name with a usage count.
type Count struct {
	Command string `json:"command"`
	Count   int64  `json:"count"`
}

var builtin = map[string]struct{}{}

func init() {
	for _, name := range []string{
		"abstract", "accum", "addcoltotals", "addinfo", "addtotals", "anomalies", "anomalydetection",
		"append", "appendcols", "appendpipe", "arules", "associate", "autoregress", "bin", "bucket",
		"chart", "cluster", "collect", "concurrency", "contingency", "convert", "correlate", "datamodel",
		"dbinspect", "dedup", "delete", "delta", "diff", "eval", "eventcount", "eventstats", "extract",
		"fieldformat", "fields", "fieldsummary", "filldown", "fillnull", "findtypes", "foreach", "format",
		"gauge", "gentimes", "geom", "geostats", "head", "highlight", "history", "iconify", "inputcsv",
		"inputlookup", "iplocation", "join", "kmeans", "kvform", "loadjob", "localize", "lookup",
		"makecontinuous", "makemv", "makeresults", "map", "metadata", "metasearch", "multikv",
		"multisearch", "mvcombine", "mvexpand", "nomv", "outlier", "outputcsv", "outputlookup",
		"predict", "rangemap", "rare", "regex", "reltime", "rename", "replace", "rest", "return",
		"reverse", "rex", "search", "searchtxn", "selfjoin", "sendemail", "set", "sichart", "sitop",
		"sort", "spath", "stats", "strcat", "streamstats", "table", "tags", "tail", "timechart",
		"top", "transaction", "transpose", "trendline", "tstats", "typeahead", "typer", "union",
		"uniq", "untable", "where", "x11", "xmlkv", "xpath", "xyseries",
	} {
		builtin[name] = struct{}{}
	}
}

// Known reports whether name is a built-in command, case-insensitively.
func Known(name string) bool {
	_, ok := builtin[strings.ToLower(name)]
	return ok
}

// Builtin returns the built-in command names in sorted order.
func Builtin() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
