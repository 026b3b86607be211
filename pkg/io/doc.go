// Package io reads catalogue datasets and writes resolved catalogues.
//
// # Dataset Format
//
// A dataset is a JSON or YAML document:
//
//	{
//	  "modules": [
//	    {"code": "MATH0005", "title": "Algebra 1", "level": 4, "term": 1},
//	    {"code": "MATH0006", "title": "Algebra 2", "level": 4, "term": 2,
//	     "prereqs": ["MATH0005", ["MATH0011", "MATH0013"]]}
//	  ],
//	  "ancillaryModules": ["MATH0011"],
//	  "themesToModules": {"Algebra": ["MATH0006"]}
//	}
//
// A prerequisite entry is a code or a list of alternative codes. level and
// term may be numbers or strings; groups, years and themes may be lists or
// space-separated strings. Every document is checked against [Schema]
// before it is decoded, so structural mistakes are reported by path.
//
// # Sources
//
// [Load] accepts a file path or an http(s) URL. Remote datasets are fetched
// with retries (see the httputil package).
//
// # Export
//
// [WriteIndex] writes the resolved catalogue (prerequisite and required-for
// lists, theme memberships, level order and positions) as JSON for tools
// that do not want to re-implement the indexing rules. [WriteDataset]
// writes a dataset document back out as JSON or YAML.
package io
