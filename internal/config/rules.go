package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dgallion1/studyplan/internal/segment"
	"github.com/dgallion1/studyplan/internal/weight"
	"gopkg.in/yaml.v3"
)

// RuleSet is the on-disk form of the segmentation and weighting tables.
//
//	segment:
//	  unit_keywords: [unit, chapter, module, week]
//	  topic_keywords: [Algorithms, Programming]
//	keywords:
//	  dynamic programming: 3
//	  recursion: 3
type RuleSet struct {
	Segment  segment.Rules       `yaml:"segment"`
	Keywords weight.KeywordTable `yaml:"keywords"`
}

// LoadRules reads a YAML rule file. An empty path returns the built-in tables.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadRules(path string) (RuleSet, error) {
	if path == "" {
		return RuleSet{Segment: segment.DefaultRules(), Keywords: weight.DefaultKeywords()}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules file: %w", err)
	}
	var rs RuleSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(rs.Keywords) == 0 {
		rs.Keywords = weight.DefaultKeywords()
	}
	return rs, nil
}
