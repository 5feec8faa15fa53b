// Copyright (C) 2019-2020, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package neve

import (
	"context"
	"errors"
	"sync"

	"github.com/xfali/fig"
	"github.com/xfali/neve-ext/appcontext"
	"github.com/xfali/neve-ext/application"
	"github.com/xfali/neve-ext/bean"
	"github.com/xfali/neve-ext/env"
	"github.com/xfali/neve-ext/processor"
	"github.com/xfali/xlog"
)

type Application interface {
	RegisterBean(o interface{}, opts ...bean.RegisterOpt) error
	RegisterBeanByName(name string, o interface{}, opts ...bean.RegisterOpt) error
	AddRegistrar(r appcontext.Registrar) error
	Run() error
	RunContext(ctx context.Context) error
}

type FileConfigApplication struct {
	logger xlog.Logger
	config fig.Properties
	ctx    appcontext.ApplicationContext
	waiter application.SignalWaiter
}

type Opt func(*FileConfigApplication)

// NewFileConfigApplication 加载YAML配置文件并初始化ApplicationContext，
// 默认添加ValueProcessor，通过RegisterProcessor注册的全局处理器同样会添加到context中
func NewFileConfigApplication(configPath string, opts ...Opt) (*FileConfigApplication, error) {
	source, err := env.LoadYamlSource(env.ApplicationConfigSourceName, configPath)
	if err != nil {
		return nil, err
	}
	return newApplication(source, opts...)
}

// NewApplication 使用已加载的配置创建Application，配置属性无法列出名称，
// 需要从配置文件进行多实例绑定时使用NewFileConfigApplication
func NewApplication(prop fig.Properties, opts ...Opt) (*FileConfigApplication, error) {
	if prop == nil {
		return nil, errors.New("Config is nil. ")
	}
	return newApplication(env.NewFigPropertySource(env.ApplicationConfigSourceName, prop), opts...)
}

func newApplication(source *env.FigPropertySource, opts ...Opt) (*FileConfigApplication, error) {
	ret := &FileConfigApplication{
		logger: xlog.GetLogger(),
		config: source.Properties(),
	}

	for _, opt := range opts {
		opt(ret)
	}
	if ret.ctx == nil {
		ret.ctx = appcontext.NewDefaultApplicationContext(appcontext.OptSetLogger(ret.logger))
	}
	if ret.waiter == nil {
		ret.waiter = application.NewSignalWaiter(application.SignalWaiterOpts.SetLogger(ret.logger))
	}

	procs := append([]processor.Processor{processor.NewValueProcessor()}, getProcessors()...)
	for _, v := range procs {
		if err := ret.ctx.AddProcessor(v); err != nil {
			return nil, err
		}
	}
	if err := ret.ctx.InitSource(source); err != nil {
		return nil, err
	}
	return ret, nil
}

func (app *FileConfigApplication) RegisterBean(o interface{}, opts ...bean.RegisterOpt) error {
	return app.ctx.RegisterBean(o, opts...)
}

func (app *FileConfigApplication) RegisterBeanByName(name string, o interface{}, opts ...bean.RegisterOpt) error {
	return app.ctx.RegisterBeanByName(name, o, opts...)
}

func (app *FileConfigApplication) AddRegistrar(r appcontext.Registrar) error {
	return app.ctx.AddRegistrar(r)
}

func (app *FileConfigApplication) Context() appcontext.ApplicationContext {
	return app.ctx
}

func (app *FileConfigApplication) Run() error {
	return app.RunContext(context.Background())
}

// RunContext 启动ApplicationContext，等待退出信号或ctx Done后关闭
func (app *FileConfigApplication) RunContext(ctx context.Context) error {
	err := app.ctx.Start()
	if err != nil {
		_ = app.ctx.Close()
		return err
	}
	defer app.waiter.Stop()
	_, err = app.waiter.Wait(ctx)
	if cerr := app.ctx.Close(); cerr != nil {
		app.logger.Errorln(cerr)
	}
	app.logger.Infof("------ %s exited ------\n", app.ctx.GetApplicationName())
	if err == context.Canceled {
		return nil
	}
	return err
}

func OptSetApplicationContext(ctx appcontext.ApplicationContext) Opt {
	return func(application *FileConfigApplication) {
		application.ctx = ctx
	}
}

func OptSetSignalWaiter(waiter application.SignalWaiter) Opt {
	return func(application *FileConfigApplication) {
		application.waiter = waiter
	}
}

func OptSetLogger(logger xlog.Logger) Opt {
	return func(application *FileConfigApplication) {
		application.logger = logger
	}
}

var (
	processors     []processor.Processor
	processorsLock sync.Mutex
)

// RegisterProcessor 注册全局处理器，在创建Application之前调用
func RegisterProcessor(proc ...processor.Processor) {
	processorsLock.Lock()
	defer processorsLock.Unlock()
	for _, v := range proc {
		if v != nil {
			processors = append(processors, v)
		}
	}
}

func getProcessors() []processor.Processor {
	processorsLock.Lock()
	defer processorsLock.Unlock()
	ret := make([]processor.Processor, len(processors))
	copy(ret, processors)
	return ret
}
