/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
This package holds everything that looks inside a parse tree: the node views, the walker that
labels every visited node with its usage context, and a thin wrapper over pg_query_go which parses
and deparses the statements. Fact extraction and truncation are built on top of it.
*/
package queryparser

import (
	"errors"
	"fmt"
	"os"
	"sync"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/pganalyze/pg_query_go/v6/parser"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/yugabyte/yb-querysummary/src/errs"
)

// Deparser turns a parse tree back into SQL text.
type Deparser interface {
	Deparse(tree *pg_query.ParseResult) (string, error)
}

/*
PgQueryParser calls into pg_query_go. With Serialized set, calls never overlap, for callers that
share one instance across goroutines and do not want to rely on the C library being reentrant.
*/
type PgQueryParser struct {
	Serialized bool

	mu sync.Mutex
}

func NewPgQueryParser(serialized bool) *PgQueryParser {
	return &PgQueryParser{Serialized: serialized}
}

func (p *PgQueryParser) lock() func() {
	if !p.Serialized {
		return func() {}
	}
	p.mu.Lock()
	return p.mu.Unlock
}

func (p *PgQueryParser) Parse(query string) (*pg_query.ParseResult, error) {
	defer p.lock()()
	log.Debugf("parsing the query [%s]", query)
	tree, err := pg_query.Parse(query)
	if err != nil {
		return nil, toParseError(err)
	}
	log.Debugf("parse tree: %v", tree)
	return tree, nil
}

func (p *PgQueryParser) ParseFile(filePath string) (*pg_query.ParseResult, error) {
	log.Debugf("parsing the file %q", filePath)
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading file failed: %w", err)
	}
	return p.Parse(string(bytes))
}

// ParseJSON decodes the JSON form of a parse tree, as produced by pg_query's ParseToJSON.
func (p *PgQueryParser) ParseJSON(jsonText string) (*pg_query.ParseResult, error) {
	tree := &pg_query.ParseResult{}
	err := protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal([]byte(jsonText), tree)
	if err != nil {
		return nil, errs.NewDecodeError(err)
	}
	return tree, nil
}

func (p *PgQueryParser) Deparse(tree *pg_query.ParseResult) (string, error) {
	defer p.lock()()
	sql, err := pg_query.Deparse(tree)
	if err != nil {
		return "", errs.NewDeparseError(err)
	}
	return sql, nil
}

func (p *PgQueryParser) Fingerprint(query string) (string, error) {
	defer p.lock()()
	fingerprint, err := pg_query.Fingerprint(query)
	if err != nil {
		return "", toParseError(err)
	}
	return fingerprint, nil
}

func (p *PgQueryParser) Normalize(query string) (string, error) {
	defer p.lock()()
	normalized, err := pg_query.Normalize(query)
	if err != nil {
		return "", toParseError(err)
	}
	return normalized, nil
}

func toParseError(err error) error {
	var pgErr *parser.Error
	if errors.As(err, &pgErr) {
		return errs.NewParseError(pgErr.Message, pgErr.Cursorpos, err)
	}
	return errs.NewParseError(err.Error(), 0, err)
}

// ParseToJSON returns the JSON form of the parse tree, the input format of ParseJSON.
func ParseToJSON(query string) (string, error) {
	jsonText, err := pg_query.ParseToJSON(query)
	if err != nil {
		return "", toParseError(err)
	}
	return jsonText, nil
}
