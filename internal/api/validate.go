package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed study_plan.schema.json
var planSchemaJSON []byte

func mustCompilePlanSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("study_plan.schema.json", bytes.NewReader(planSchemaJSON)); err != nil {
		panic(fmt.Sprintf("load study plan schema: %v", err))
	}
	schema, err := compiler.Compile("study_plan.schema.json")
	if err != nil {
		panic(fmt.Sprintf("compile study plan schema: %v", err))
	}
	return schema
}

// decodePlan validates a client-held plan document before decoding it.
func (s *Server) decodePlan(raw json.RawMessage) (*plan.StudyPlan, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode study_plan: %w", err)
	}
	if err := s.planSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("study_plan does not match schema: %w", err)
	}
	var p plan.StudyPlan
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode study_plan: %w", err)
	}
	return &p, nil
}

// checkStruct runs struct tag validation and flattens failures into one
// message, e.g. "Days failed on 'gte' tag".
func (s *Server) checkStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s' tag", e.Field(), e.Tag()))
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
