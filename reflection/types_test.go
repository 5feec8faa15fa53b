// Copyright (C) 2019-2021, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package reflection

import (
	"reflect"
	"testing"
)

type sample struct{}

func TestTypeRegistry(t *testing.T) {
	r := NewTypeRegistry()
	r.Register(&sample{})

	pt := reflect.TypeOf(&sample{})
	if v, ok := r.Lookup(GetTypeName(pt)); !ok || v != pt {
		t.Fatal("expect pointer type")
	}
	if v, ok := r.Lookup(GetTypeName(pt.Elem())); !ok || v != pt.Elem() {
		t.Fatal("expect elem type")
	}
	if _, ok := r.Lookup("not.exists"); ok {
		t.Fatal("expect not found")
	}
	if _, ok := r.Lookup(""); ok {
		t.Fatal("expect not found")
	}
	if GetTypeName(nil) != "" {
		t.Fatal("expect empty name")
	}
	t.Log(GetTypeName(pt))
}

func TestDefaultTypeRegistry(t *testing.T) {
	Register(&sample{})
	if _, ok := ResolveType(GetTypeName(reflect.TypeOf(sample{}))); !ok {
		t.Fatal("expect registered")
	}
}
