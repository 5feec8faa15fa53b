// Copyright (C) 2019-2020, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package neve

import (
	"context"
	"errors"
	"os"
	"reflect"
	"syscall"
	"testing"
	"time"

	"github.com/xfali/fig"
	"github.com/xfali/neve-ext/bean"
	"github.com/xfali/neve-ext/binding"
)

type testBean struct {
	V string `fig:"userdata.value"`

	afterSet bool
	destroy  bool
}

func (b *testBean) BeanAfterSet() error {
	b.afterSet = true
	return nil
}

func (b *testBean) BeanDestroy() error {
	b.destroy = true
	return nil
}

type User struct {
	Name string
	Age  int
}

type fakeWaiter struct {
	ch chan os.Signal
}

func (w *fakeWaiter) Wait(ctx context.Context) (os.Signal, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case si := <-w.ch:
		return si, nil
	}
}

func (w *fakeWaiter) Notify(signal os.Signal) error {
	w.ch <- signal
	return nil
}

func (w *fakeWaiter) Stop() {}

func TestFileConfigApplication(t *testing.T) {
	waiter := &fakeWaiter{ch: make(chan os.Signal, 1)}
	app, err := NewFileConfigApplication("testdata/application.yaml", OptSetSignalWaiter(waiter))
	if err != nil {
		t.Fatal(err)
	}
	if app.Context().GetApplicationName() != "neve test" {
		t.Fatal("expect neve test but get ", app.Context().GetApplicationName())
	}
	b := &testBean{}
	if err := app.RegisterBean(b); err != nil {
		t.Fatal(err)
	}
	if err := app.RegisterBeanByName("counter", func() (int, error) {
		return 1, nil
	}); err != nil {
		t.Fatal(err)
	}

	_ = waiter.Notify(syscall.SIGTERM)
	if err := app.Run(); err != nil {
		t.Fatal(err)
	}
	if b.V != "this is a test" || !b.afterSet || !b.destroy {
		t.Fatal("lifecycle failed: ", b)
	}
	if v, ok := app.Context().GetBean("counter"); !ok || v.(int) != 1 {
		t.Fatal("expect counter 1")
	}
}

func TestYamlMultipleBinding(t *testing.T) {
	waiter := &fakeWaiter{ch: make(chan os.Signal, 1)}
	app, err := NewFileConfigApplication("testdata/application.yaml", OptSetSignalWaiter(waiter))
	if err != nil {
		t.Fatal(err)
	}
	if err := app.RegisterBean(binding.NewRegistrar(binding.OptAddBindings(binding.Binding{
		Prefix:   "users",
		Type:     reflect.TypeOf(&User{}),
		Multiple: true,
	}))); err != nil {
		t.Fatal(err)
	}
	_ = waiter.Notify(syscall.SIGTERM)
	if err := app.Run(); err != nil {
		t.Fatal(err)
	}
	a, ok := app.Context().GetBean("a")
	if !ok || a.(*User).Name != "A" || a.(*User).Age != 1 {
		t.Fatal("expect user a from yaml")
	}
	b, ok := app.Context().GetBean("b")
	if !ok || b.(*User).Name != "B" {
		t.Fatal("expect user b from yaml")
	}
}

func TestNewApplication(t *testing.T) {
	if _, err := NewApplication(nil); err == nil {
		t.Fatal("expect nil config error")
	}
	conf, err := fig.LoadYamlFile("testdata/application.yaml")
	if err != nil {
		t.Fatal(err)
	}
	app, err := NewApplication(conf)
	if err != nil {
		t.Fatal(err)
	}
	if app.Context().GetApplicationName() != "neve test" {
		t.Fatal("expect neve test but get ", app.Context().GetApplicationName())
	}
}

func TestRunContext(t *testing.T) {
	app, err := NewFileConfigApplication("testdata/application.yaml")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := app.RunContext(ctx); err != context.DeadlineExceeded {
		t.Fatal("expect deadline exceeded but get ", err)
	}

	app, err = NewFileConfigApplication("testdata/application.yaml")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel = context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	if err := app.RunContext(ctx); err != nil {
		t.Fatal("expect nil when canceled but get ", err)
	}
}

type failedRegistrar struct{}

func (failedRegistrar) RegisterDefinitions(registry bean.Registry) error {
	return errors.New("register failed")
}

func TestApplicationFailed(t *testing.T) {
	if _, err := NewFileConfigApplication("testdata/not_exists.yaml"); err == nil {
		t.Fatal("expect load error")
	}
	app, err := NewFileConfigApplication("testdata/application.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if err := app.AddRegistrar(failedRegistrar{}); err != nil {
		t.Fatal(err)
	}
	if err := app.Run(); err == nil {
		t.Fatal("expect start error")
	}
}
