// Copyright (C) 2019-2020, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package processor

import (
	"testing"

	"github.com/xfali/fig"
)

type valueBean struct {
	V    string `fig:"userdata.value"`
	Name string `fig:"neve.application.name"`
}

func TestValueProcessor(t *testing.T) {
	conf, err := fig.LoadYamlFile("testdata/application.yaml")
	if err != nil {
		t.Fatal(err)
	}
	p := NewValueProcessor()
	if err := p.Init(conf, nil); err != nil {
		t.Fatal(err)
	}

	b := &valueBean{}
	ok, err := p.Classify(b)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expect classified")
	}
	if b.V != "this is a test" || b.Name != "test app" {
		t.Fatal("fill failed: ", b)
	}

	ok, err = p.Classify("not a struct")
	if ok || err != nil {
		t.Fatal("expect skip")
	}
	if p.Process() != nil || p.BeanDestroy() != nil {
		t.Fatal("expect nil")
	}
}
