package parser

import (
	"errors"
	"testing"
)

type listQuery struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Retry  *bool  `form:"retry"`
	Ignore string
}

func lookupFrom(m map[string]string) func(string, ...string) string {
	return func(k string, _ ...string) string { return m[k] }
}

func TestBind(t *testing.T) {
	q := listQuery{Limit: 100}
	err := bind(lookupFrom(map[string]string{"status": "error", "retry": "true", "Ignore": "x"}), &q)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if q.Status != "error" || q.Limit != 100 || q.Retry == nil || !*q.Retry || q.Ignore != "" {
		t.Fatalf("bound = %+v", q)
	}
}

func TestBindInvalidValue(t *testing.T) {
	var q listQuery
	err := bind(lookupFrom(map[string]string{"limit": "ten"}), &q)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Param != "limit" {
		t.Fatalf("err = %v, want FieldError for limit", err)
	}
	if err := bind(lookupFrom(nil), q); err == nil {
		t.Fatal("expected error for non-pointer")
	}
}
