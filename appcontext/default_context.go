/*
 * Copyright 2022 Xiongfa Li.
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

package appcontext

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xfali/fig"
	"github.com/xfali/neve-ext/bean"
	"github.com/xfali/neve-ext/beanutil"
	"github.com/xfali/neve-ext/env"
	errors2 "github.com/xfali/neve-ext/errors"
	"github.com/xfali/neve-ext/processor"
	"github.com/xfali/neve-ext/reflection"
	"github.com/xfali/xlog"
)

const (
	statusNone int32 = iota
	statusInitializing
	statusInitialized
	statusClosed
)

const (
	KeyApplicationName       = "neve.application.name"
	KeyApplicationBanner     = "neve.application.banner"
	KeyApplicationBannerMode = "neve.application.bannerMode"
	KeyResourceProperties    = "neve.resource.properties"
	KeyResourceJSON          = "neve.resource.json"
	// 最低优先级的默认属性
	KeyResourceDefaultProperties = "neve.resource.defaultProperties"

	PropertiesSourceName = "applicationProperties"
	JSONSourceName       = "applicationJson"

	DefaultApplicationName = "Neve Application"
)

type Opt func(*defaultApplicationContext)

type defaultApplicationContext struct {
	config   fig.Properties
	logger   xlog.Logger
	env      *env.Environment
	registry bean.Registry
	compat   *beanutil.Compat
	banner   io.Writer

	registrars     []Registrar
	registrarsLock sync.Mutex

	processors     []processor.Processor
	processorsLock sync.Mutex
	// 未作为bean注册的处理器，关闭时由context销毁
	unmanaged []processor.Processor

	appName  string
	curState int32

	closeOnce sync.Once
}

func NewDefaultApplicationContext(opts ...Opt) *defaultApplicationContext {
	ret := &defaultApplicationContext{
		logger:   xlog.GetLogger(),
		compat:   beanutil.DefaultCompat(),
		appName:  DefaultApplicationName,
		curState: statusNone,
	}

	for _, opt := range opts {
		opt(ret)
	}

	if ret.env == nil {
		ret.env = env.NewEnvironment(env.OptSetLogger(ret.logger))
	}
	if ret.registry == nil {
		ret.registry = bean.NewRegistry(
			bean.OptSetInstantiator(ret.compat.Instantiator()),
			bean.OptSetRegistryLogger(ret.logger))
	}
	if ret.banner == nil {
		ret.banner = selectWriter()
	}
	return ret
}

func OptSetRegistry(registry bean.Registry) Opt {
	return func(context *defaultApplicationContext) {
		context.registry = registry
	}
}

func OptSetEnvironment(e *env.Environment) Opt {
	return func(context *defaultApplicationContext) {
		context.env = e
	}
}

func OptSetLogger(logger xlog.Logger) Opt {
	return func(context *defaultApplicationContext) {
		context.logger = logger
	}
}

func OptSetCompat(compat *beanutil.Compat) Opt {
	return func(context *defaultApplicationContext) {
		context.compat = compat
	}
}

func OptSetBannerWriter(w io.Writer) Opt {
	return func(context *defaultApplicationContext) {
		context.banner = w
	}
}

func (ctx *defaultApplicationContext) Init(config fig.Properties) error {
	if config == nil {
		return errors.New("Config is nil. ")
	}
	return ctx.InitSource(env.NewFigPropertySource(env.ApplicationConfigSourceName, config))
}

// InitSource 使用应用配置属性源初始化，配置中的资源位置支持占位符
func (ctx *defaultApplicationContext) InitSource(source *env.FigPropertySource) error {
	if source == nil || source.Properties() == nil {
		return errors.New("Config is nil. ")
	}
	ctx.config = source.Properties()
	sources := ctx.env.PropertySources()
	sources.AddLast(source)
	ctx.appName = ctx.env.GetPropertyOrDefault(KeyApplicationName, DefaultApplicationName)

	locations, err := ctx.resourceLocations(KeyResourceProperties)
	if err != nil {
		return err
	}
	if len(locations) > 0 {
		s, err := env.LoadPropertiesSource(PropertiesSourceName, locations...)
		if err != nil {
			return err
		}
		sources.AddLast(s)
	}
	locations, err = ctx.resourceLocations(KeyResourceJSON)
	if err != nil {
		return err
	}
	if len(locations) > 0 {
		s, err := env.LoadJSONSource(JSONSourceName, locations...)
		if err != nil {
			return err
		}
		sources.AddLast(s)
	}
	locations, err = ctx.resourceLocations(KeyResourceDefaultProperties)
	if err != nil {
		return err
	}
	if len(locations) > 0 {
		if err := env.LoadDefaultProperties(sources, locations...); err != nil {
			return err
		}
	}

	// 将已注册的处理器绑定到新的配置
	ctx.processorsLock.Lock()
	defer ctx.processorsLock.Unlock()
	for _, p := range ctx.processors {
		if err := p.Init(ctx.config, ctx.registry); err != nil {
			return err
		}
	}
	return nil
}

// resourceLocations 读取key对应的资源位置并解析其中的占位符，多个位置使用","分隔
func (ctx *defaultApplicationContext) resourceLocations(key string) ([]string, error) {
	if !ctx.env.ContainsProperty(key) {
		return nil, nil
	}
	v, err := ctx.env.GetRequiredProperty(key)
	if err != nil {
		return nil, fmt.Errorf("resolve %s failed: %w", key, err)
	}
	return splitLocations(v), nil
}

func splitLocations(s string) []string {
	var ret []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			ret = append(ret, v)
		}
	}
	return ret
}

func (ctx *defaultApplicationContext) GetApplicationName() string {
	return ctx.appName
}

func (ctx *defaultApplicationContext) Environment() *env.Environment {
	return ctx.env
}

func (ctx *defaultApplicationContext) Registry() bean.Registry {
	return ctx.registry
}

func (ctx *defaultApplicationContext) Close() (err error) {
	ctx.closeOnce.Do(func() {
		atomic.StoreInt32(&ctx.curState, statusClosed)
		err = ctx.destroyBeans()
	})
	return err
}

func (ctx *defaultApplicationContext) isInitializing() bool {
	return atomic.LoadInt32(&ctx.curState) == statusInitializing
}

func (ctx *defaultApplicationContext) RegisterBean(o interface{}, opts ...bean.RegisterOpt) error {
	return ctx.RegisterBeanByName("", o, opts...)
}

// RegisterBeanByName 函数作为工厂方法注册，其他对象使用返回该对象的实例supplier注册。
// 对象实现了Registrar或processor.Processor时同时添加到context。
func (ctx *defaultApplicationContext) RegisterBeanByName(name string, o interface{}, opts ...bean.RegisterOpt) error {
	if ctx.isInitializing() {
		return errors.New("Initializing, cannot register new object. ")
	}

	if o == nil {
		return nil
	}

	def, err := ctx.definitionOf(name, o)
	if err != nil {
		return err
	}
	if name == "" {
		name = def.BeanTypeName()
	}
	err = ctx.registry.RegisterDefinition(name, def, opts...)
	if err != nil {
		return err
	}

	if v, ok := o.(Registrar); ok {
		ctx.addRegistrar(v)
	}

	if v, ok := o.(processor.Processor); ok {
		err = ctx.addProcessor(v, true)
		if err != nil {
			return err
		}
	}

	return nil
}

func (ctx *defaultApplicationContext) definitionOf(name string, o interface{}) (*bean.RootDefinition, error) {
	t := reflect.TypeOf(o)
	if t.Kind() == reflect.Func {
		m, err := bean.NewFactoryMethod(name, o)
		if err != nil {
			return nil, err
		}
		reflection.RegisterType(m.ReturnType())
		return bean.NewFactoryDefinition(m), nil
	}
	def, err := ctx.compat.NewSupplierDefinition(t, func() (interface{}, error) {
		return o, nil
	})
	if err != nil {
		return nil, err
	}
	reflection.RegisterType(t)
	return def, nil
}

func (ctx *defaultApplicationContext) RegisterDefinition(name string, def bean.AbstractDefinition, opts ...bean.RegisterOpt) error {
	if ctx.isInitializing() {
		return errors.New("Initializing, cannot register new definition. ")
	}
	return ctx.registry.RegisterDefinition(name, def, opts...)
}

func (ctx *defaultApplicationContext) addRegistrar(r Registrar) {
	ctx.registrarsLock.Lock()
	defer ctx.registrarsLock.Unlock()

	ctx.registrars = append(ctx.registrars, r)
}

func (ctx *defaultApplicationContext) addProcessor(p processor.Processor, managed bool) error {
	ctx.processorsLock.Lock()
	defer ctx.processorsLock.Unlock()

	ctx.processors = append(ctx.processors, p)
	if !managed {
		ctx.unmanaged = append(ctx.unmanaged, p)
	}
	if ctx.config == nil {
		// Init时初始化
		return nil
	}
	return p.Init(ctx.config, ctx.registry)
}

func (ctx *defaultApplicationContext) GetBean(name string) (interface{}, bool) {
	o, err := ctx.registry.GetBean(name)
	if err != nil {
		ctx.logger.Debugln(err)
		return nil, false
	}
	return o, true
}

func (ctx *defaultApplicationContext) AddRegistrar(r Registrar) error {
	if r == nil {
		return errors.New("Registrar is nil. ")
	}
	if ctx.isInitializing() {
		return errors.New("Initializing, cannot add registrar. ")
	}
	ctx.addRegistrar(r)
	return nil
}

func (ctx *defaultApplicationContext) AddProcessor(p processor.Processor) error {
	if p != nil {
		return ctx.addProcessor(p, false)
	}
	return errors.New("Processor is nil. ")
}

func (ctx *defaultApplicationContext) Start() error {
	if !atomic.CompareAndSwapInt32(&ctx.curState, statusNone, statusInitializing) {
		return fmt.Errorf("Application Context Status error, current: %d . ", atomic.LoadInt32(&ctx.curState))
	}
	ctx.printCtxInfo()

	// 注册器注册bean定义
	if err := ctx.doRegister(); err != nil {
		atomic.StoreInt32(&ctx.curState, statusNone)
		return err
	}
	// 创建所有bean
	if err := ctx.registry.PreInstantiate(); err != nil {
		atomic.StoreInt32(&ctx.curState, statusNone)
		return err
	}
	// EnvironmentAware and ApplicationContextAware Set.
	ctx.notifyAware()
	// Processor classify
	ctx.classifyBean()
	// Notify BeanAfterSet
	if err := ctx.registry.AfterSet(); err != nil {
		ctx.logger.Errorln(err)
	}
	// Processor process
	if err := ctx.doProcess(); err != nil {
		atomic.StoreInt32(&ctx.curState, statusNone)
		return err
	}

	// 初始化完成
	if !atomic.CompareAndSwapInt32(&ctx.curState, statusInitializing, statusInitialized) {
		return errors.New("Application Context closed while starting. ")
	}
	ctx.logger.Infof("%s started, %d beans\n", ctx.appName, ctx.registry.DefinitionCount())
	return nil
}

func (ctx *defaultApplicationContext) printCtxInfo() {
	if ctx.config == nil {
		printBanner(ctx.banner, "")
		return
	}
	path := ctx.config.Get(KeyApplicationBanner, "")
	mode := ctx.config.Get(KeyApplicationBannerMode, "")
	mode = strings.ToLower(mode)
	if mode != "off" && mode != "false" {
		printBanner(ctx.banner, path)
	}
}

func (ctx *defaultApplicationContext) doRegister() error {
	ctx.registrarsLock.Lock()
	defer ctx.registrarsLock.Unlock()

	var errs errors2.Errors
	for _, r := range ctx.registrars {
		if v, ok := r.(EnvironmentAware); ok {
			v.SetEnvironment(ctx.env)
		}
		if v, ok := r.(ApplicationContextAware); ok {
			v.SetApplicationContext(ctx)
		}
		errs.AddError(r.RegisterDefinitions(ctx.registry))
	}
	return errs.ErrorOrNil()
}

func (ctx *defaultApplicationContext) notifyAware() {
	ctx.registry.ScanBeans(func(name string, o interface{}) bool {
		if v, ok := o.(EnvironmentAware); ok {
			v.SetEnvironment(ctx.env)
		}
		if v, ok := o.(ApplicationContextAware); ok {
			v.SetApplicationContext(ctx)
		}
		return true
	})
}

func (ctx *defaultApplicationContext) classifyBean() {
	ctx.registry.ScanBeans(func(name string, o interface{}) bool {
		// 必须先分类，由于ValueProcessor会在Classify将配置的属性值注入
		ctx.classifyOneBean(name, o)
		return true
	})
}

func (ctx *defaultApplicationContext) classifyOneBean(name string, o interface{}) {
	ctx.processorsLock.Lock()
	defer ctx.processorsLock.Unlock()

	for _, processor := range ctx.processors {
		_, err := processor.Classify(o)
		if err != nil {
			ctx.logger.Errorf("classify bean %s failed: %v\n", name, err)
		}
	}
}

func (ctx *defaultApplicationContext) doProcess() error {
	ctx.processorsLock.Lock()
	defer ctx.processorsLock.Unlock()

	for _, processor := range ctx.processors {
		// processor error must return
		if err := processor.Process(); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *defaultApplicationContext) destroyBeans() error {
	var errs errors2.Errors
	errs.AddError(ctx.registry.Destroy())

	ctx.processorsLock.Lock()
	defer ctx.processorsLock.Unlock()
	for _, p := range ctx.unmanaged {
		err := p.BeanDestroy()
		if err != nil {
			ctx.logger.Errorln(err)
			errs.AddError(err)
		}
	}
	return errs.ErrorOrNil()
}
