// Copyright (C) 2019-2021, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package resource

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	SetRoot("testdata")
	defer SetRoot("")

	t.Run("classpath*", func(t *testing.T) {
		rs, err := Resolve("classpath*:conf/*.properties")
		if err != nil {
			t.Fatal(err)
		}
		if len(rs) != 2 {
			t.Fatal("expect 2 but get ", len(rs))
		}
		if rs[0].(*FileSystemResource).Path() != filepath.Join("testdata", "conf", "a.properties") {
			t.Fatal("expect sorted resources but get ", rs[0].Description())
		}
		for _, r := range rs {
			if !IsFileBasedResource(r) || IsFileURLResource(r) {
				t.Fatal("expect file system resource")
			}
		}
	})

	t.Run("classpath", func(t *testing.T) {
		rs, err := Resolve("classpath:conf/*.properties")
		if err != nil {
			t.Fatal(err)
		}
		if len(rs) != 1 {
			t.Fatal("expect 1 but get ", len(rs))
		}
	})

	t.Run("not found", func(t *testing.T) {
		rs, err := Resolve("classpath*:conf/*.json")
		if err != nil {
			t.Fatal(err)
		}
		if len(rs) != 0 {
			t.Fatal("expect empty")
		}
	})

	t.Run("file url", func(t *testing.T) {
		abs, err := filepath.Abs(filepath.Join("testdata", "conf", "b.properties"))
		if err != nil {
			t.Fatal(err)
		}
		rs, err := Resolve("file://" + filepath.ToSlash(abs))
		if err != nil {
			t.Fatal(err)
		}
		if len(rs) != 1 || !IsFileURLResource(rs[0]) || !IsFileBasedResource(rs[0]) {
			t.Fatal("expect file url resource")
		}
		rc, err := rs[0].Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		if string(data) != "b=2\n" {
			t.Fatal("expect b=2 but get ", string(data))
		}
	})

	t.Run("file url glob", func(t *testing.T) {
		abs, err := filepath.Abs(filepath.Join("testdata", "conf"))
		if err != nil {
			t.Fatal(err)
		}
		rs, err := Resolve("file://" + filepath.ToSlash(abs) + "/*.properties")
		if err != nil {
			t.Fatal(err)
		}
		if len(rs) != 2 {
			t.Fatal("expect 2 but get ", len(rs))
		}
		if !IsFileURLResource(rs[0]) || rs[0].(*FileURLResource).Path() != filepath.Join(abs, "a.properties") {
			t.Fatal("expect sorted file url resources but get ", rs[0].Description())
		}
		if rs[1].(*FileURLResource).URL() != "file://"+filepath.ToSlash(filepath.Join(abs, "b.properties")) {
			t.Fatal("expect match url but get ", rs[1].(*FileURLResource).URL())
		}

		rs, err = Resolve("file:testdata/conf/?.properties")
		if err != nil {
			t.Fatal(err)
		}
		if len(rs) != 2 {
			t.Fatal("expect 2 but get ", len(rs))
		}
		rs, err = Resolve("file:testdata/conf/none.properties")
		if err != nil || len(rs) != 0 {
			t.Fatal("expect empty")
		}
	})

	t.Run("bad pattern", func(t *testing.T) {
		if _, err := Resolve("classpath*:conf/[.properties"); err == nil {
			t.Fatal("expect error")
		}
	})
}

func TestBytesResource(t *testing.T) {
	r := NewBytesResource("mem", []byte("x=1"))
	if IsFileBasedResource(r) {
		t.Fatal("expect not file based")
	}
	if !r.Exists() {
		t.Fatal("expect exists")
	}
}

func TestGetRoot(t *testing.T) {
	SetRoot("a")
	defer SetRoot("")
	if GetRoot() != "a" && os.Getenv(envResourceDir) == "" {
		t.Fatal("expect a")
	}
	os.Setenv(envResourceDir, "b")
	defer os.Unsetenv(envResourceDir)
	if GetRoot() != "b" {
		t.Fatal("expect env first")
	}
	if GetResource("c") != filepath.Join("b", "c") {
		t.Fatal("expect b/c")
	}
}
