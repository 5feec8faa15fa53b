/*
 * Copyright 2024 Xiongfa Li.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package env

import (
	"strings"
	"testing"

	"github.com/xfali/neve-ext/resource"
)

func newTestEnvironment(props map[string]string) *Environment {
	e := NewEnvironment()
	e.PropertySources().AddLast(NewMapPropertySource("test", props))
	return e
}

func TestPropertySources(t *testing.T) {
	ps := NewPropertySources()
	a := NewMapPropertySource("a", map[string]string{"k": "a"})
	b := NewMapPropertySource("b", map[string]string{"k": "b"})
	c := NewMapPropertySource("c", map[string]string{"k": "c"})

	ps.AddLast(b)
	ps.AddFirst(a)
	if err := ps.AddAfter("b", c); err != nil {
		t.Fatal(err)
	}
	if names(ps) != "a,b,c" {
		t.Fatal("expect a,b,c but get ", names(ps))
	}
	if err := ps.AddBefore("a", c); err != nil {
		t.Fatal(err)
	}
	if names(ps) != "c,a,b" {
		t.Fatal("expect c,a,b but get ", names(ps))
	}
	if err := ps.AddBefore("x", a); err == nil {
		t.Fatal("expect not exist error")
	}
	if err := ps.AddAfter("a", a); err == nil {
		t.Fatal("expect relative to itself error")
	}

	d := NewMapPropertySource("d", nil)
	if err := ps.Replace("a", d); err != nil {
		t.Fatal(err)
	}
	if names(ps) != "c,d,b" {
		t.Fatal("expect c,d,b but get ", names(ps))
	}
	if ps.Remove("c") == nil || ps.Contains("c") {
		t.Fatal("expect c removed")
	}
	if ps.Remove("c") != nil {
		t.Fatal("expect nil")
	}
	if _, ok := ps.Get("b"); !ok || ps.Len() != 2 {
		t.Fatal("expect b")
	}

	// 同名属性源重新添加时移动位置
	ps.AddLast(NewMapPropertySource("d", nil))
	if names(ps) != "b,d" {
		t.Fatal("expect b,d but get ", names(ps))
	}
}

func names(ps *PropertySources) string {
	var ret []string
	for _, s := range ps.List() {
		ret = append(ret, s.Name())
	}
	return strings.Join(ret, ",")
}

func TestEnvironmentPrecedence(t *testing.T) {
	e := NewEnvironment()
	e.PropertySources().AddLast(NewMapPropertySource("low", map[string]string{"a": "low", "b": "low"}))
	e.PropertySources().AddFirst(NewMapPropertySource("high", map[string]string{"a": "high"}))

	if v, _ := e.GetProperty("a"); v != "high" {
		t.Fatal("expect high but get ", v)
	}
	if v, _ := e.GetProperty("b"); v != "low" {
		t.Fatal("expect low but get ", v)
	}
	if _, ok := e.GetProperty("c"); ok {
		t.Fatal("expect not found")
	}
	if e.GetPropertyOrDefault("c", "x") != "x" {
		t.Fatal("expect default")
	}
	if _, err := e.GetRequiredProperty("c"); err == nil {
		t.Fatal("expect error")
	}
	if strings.Join(e.PropertyNames(), ",") != "a,b" {
		t.Fatal("expect a,b but get ", e.PropertyNames())
	}
}

func TestPlaceholders(t *testing.T) {
	e := newTestEnvironment(map[string]string{
		"a":      "1",
		"b":      "${a}-2",
		"name":   "b",
		"cycle1": "${cycle2}",
		"cycle2": "${cycle1}",
		"bad":    "${missing}",
	})

	t.Run("simple", func(t *testing.T) {
		if v := e.ResolvePlaceholders("${a}"); v != "1" {
			t.Fatal("expect 1 but get ", v)
		}
		if v := e.ResolvePlaceholders("x${a}y${b}z"); v != "x1y1-2z" {
			t.Fatal("expect x1y1-2z but get ", v)
		}
		if v := e.ResolvePlaceholders("no placeholder"); v != "no placeholder" {
			t.Fatal("expect unchanged but get ", v)
		}
		if v := e.ResolvePlaceholders("${a"); v != "${a" {
			t.Fatal("expect unchanged but get ", v)
		}
	})

	t.Run("nested", func(t *testing.T) {
		if v := e.ResolvePlaceholders("${${name}}"); v != "1-2" {
			t.Fatal("expect 1-2 but get ", v)
		}
		if v, _ := e.GetProperty("b"); v != "1-2" {
			t.Fatal("expect 1-2 but get ", v)
		}
	})

	t.Run("default", func(t *testing.T) {
		if v := e.ResolvePlaceholders("${missing:def}"); v != "def" {
			t.Fatal("expect def but get ", v)
		}
		if v := e.ResolvePlaceholders("${a:def}"); v != "1" {
			t.Fatal("expect 1 but get ", v)
		}
		if v := e.ResolvePlaceholders("${missing:${a}}"); v != "1" {
			t.Fatal("expect 1 but get ", v)
		}
		if v := e.ResolvePlaceholders("${missing:}"); v != "" {
			t.Fatal("expect empty but get ", v)
		}
	})

	t.Run("unresolvable", func(t *testing.T) {
		if v := e.ResolvePlaceholders("x${missing}"); v != "x${missing}" {
			t.Fatal("expect unchanged but get ", v)
		}
		if _, err := e.ResolveRequiredPlaceholders("x${missing}"); err == nil {
			t.Fatal("expect error")
		}
		if v, _ := e.GetProperty("bad"); v != "${missing}" {
			t.Fatal("expect unchanged but get ", v)
		}
		if _, err := e.GetRequiredProperty("bad"); err == nil {
			t.Fatal("expect error")
		}
	})

	t.Run("cycle", func(t *testing.T) {
		if _, err := e.ResolveRequiredPlaceholders("${cycle1}"); err == nil {
			t.Fatal("expect circular error")
		}
		if v, ok := e.GetProperty("cycle1"); !ok || v != "${cycle2}" {
			t.Fatal("expect raw value but get ", v)
		}
	})
}

func TestLoadPropertiesSource(t *testing.T) {
	resource.SetRoot("testdata")
	defer resource.SetRoot("")

	s, err := LoadPropertiesSource("props", "classpath*:props/*.properties")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetProperty("a"); v != "1" {
		t.Fatal("expect 1 but get ", v)
	}
	if v, _ := s.GetProperty("b"); v != "3" {
		t.Fatal("expect 3 but get ", v)
	}

	e := NewEnvironment()
	e.PropertySources().AddLast(s)
	e.PropertySources().AddFirst(NewMapPropertySource("name", map[string]string{"my.name": "neve"}))
	if v, _ := e.GetProperty("greeting"); v != "hello neve" {
		t.Fatal("expect hello neve but get ", v)
	}

	if _, err := LoadPropertiesSource("none", "classpath*:props/*.none"); err == nil {
		t.Fatal("expect not found error")
	}
}

func TestLoadJSONSource(t *testing.T) {
	resource.SetRoot("testdata")
	defer resource.SetRoot("")

	s, err := LoadJSONSource("json", "classpath*:json/*.json")
	if err != nil {
		t.Fatal(err)
	}
	expect := map[string]string{
		"my.name":    "mercyblitz",
		"my.age":     "18",
		"my.enabled": "true",
		"my.tags[0]": "a",
		"my.tags[1]": "b",
		"my.nothing": "",
	}
	for k, v := range expect {
		if got, ok := s.GetProperty(k); !ok || got != v {
			t.Fatalf("expect %s=%s but get %s", k, v, got)
		}
	}
	if len(s.PropertyNames()) != len(expect) {
		t.Fatal("expect ", len(expect), " but get ", len(s.PropertyNames()))
	}

	if _, err := ParseJSON(strings.NewReader("{")); err == nil {
		t.Fatal("expect parse error")
	}
}

func TestDefaultProperties(t *testing.T) {
	resource.SetRoot("testdata")
	defer resource.SetRoot("")

	ps := NewPropertySources()
	ps.AddLast(NewMapPropertySource("app", map[string]string{"a": "app"}))
	if err := LoadDefaultProperties(ps, "classpath*:props/*.properties"); err != nil {
		t.Fatal(err)
	}
	if !ps.Contains(DefaultPropertiesSourceName) {
		t.Fatal("expect defaultProperties")
	}

	ps.AddLast(NewMapPropertySource("late", nil))
	AddDefaultProperties(ps, map[string]string{"c": "4", "b": "5"})
	if names(ps) != "app,late,"+DefaultPropertiesSourceName {
		t.Fatal("expect defaultProperties last but get ", names(ps))
	}

	e := NewEnvironment(OptSetPropertySources(ps))
	if v, _ := e.GetProperty("a"); v != "app" {
		t.Fatal("expect app but get ", v)
	}
	if v, _ := e.GetProperty("b"); v != "5" {
		t.Fatal("expect 5 but get ", v)
	}
	if v, _ := e.GetProperty("c"); v != "4" {
		t.Fatal("expect 4 but get ", v)
	}
}

func TestFigPropertySource(t *testing.T) {
	s, err := LoadYamlSource(ApplicationConfigSourceName, "testdata/application.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := s.GetProperty("neve.application.name"); !ok || v != "test app" {
		t.Fatal("expect test app but get ", v)
	}
	if _, ok := s.GetProperty("not.exists"); ok {
		t.Fatal("expect not found")
	}

	if v := strings.Join(s.PropertyNames(), ","); v != "neve.application.name,userdata.value" {
		t.Fatal("expect yaml property names but get ", v)
	}

	e := NewEnvironment()
	e.PropertySources().AddLast(s)
	if v := e.ResolvePlaceholders("${userdata.value}"); v != "this is a test" {
		t.Fatal("expect 'this is a test' but get ", v)
	}
	if v := strings.Join(e.PropertyNames(), ","); v != "neve.application.name,userdata.value" {
		t.Fatal("expect yaml property names in environment but get ", v)
	}

	// 仅有fig.Properties时无法列出属性名称
	plain := NewFigPropertySource("plain", s.Properties())
	if len(plain.PropertyNames()) != 0 {
		t.Fatal("expect no names")
	}
	if v, ok := plain.GetProperty("userdata.value"); !ok || v != "this is a test" {
		t.Fatal("expect 'this is a test' but get ", v)
	}
}

func TestParseYaml(t *testing.T) {
	m, err := ParseYaml(strings.NewReader(`
users:
  a:
    name: A
    age: 1
  b:
    name: ${user.b.name:B}
tags: [x, y]
empty:
`))
	if err != nil {
		t.Fatal(err)
	}
	expect := map[string]string{
		"users.a.name": "A",
		"users.a.age":  "1",
		"users.b.name": "${user.b.name:B}",
		"tags[0]":      "x",
		"tags[1]":      "y",
		"empty":        "",
	}
	for k, v := range expect {
		if got, ok := m[k]; !ok || got != v {
			t.Fatalf("expect %s=%s but get %s", k, v, got)
		}
	}
	if len(m) != len(expect) {
		t.Fatal("expect ", len(expect), " but get ", len(m))
	}

	if _, err := ParseYaml(strings.NewReader("a: [")); err == nil {
		t.Fatal("expect parse error")
	}
	m, err = ParseYaml(strings.NewReader(""))
	if err != nil || len(m) != 0 {
		t.Fatal("expect empty")
	}
}

func TestLoadYamlPropertiesSource(t *testing.T) {
	s, err := LoadYamlPropertiesSource("yaml", "testdata/*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetProperty("neve.application.name"); v != "test app" {
		t.Fatal("expect test app but get ", v)
	}
}
