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
	"github.com/xfali/fig"
	"github.com/xfali/neve-ext/bean"
	"github.com/xfali/neve-ext/env"
	"github.com/xfali/neve-ext/processor"
)

type ApplicationContext interface {
	// 初始化context，加载配置中声明的属性源
	Init(config fig.Properties) error

	// 使用应用配置属性源初始化context，属性源可列出属性名称时支持从配置文件进行多实例绑定
	InitSource(source *env.FigPropertySource) error

	// 获得应用名称
	GetApplicationName() string

	// 获得应用环境
	Environment() *env.Environment

	// 获得bean定义注册表
	Registry() bean.Registry

	// 注册对象，对象为函数时作为工厂方法注册
	// opts添加bean注册的配置，详情查看bean.RegisterOpt
	RegisterBean(o interface{}, opts ...bean.RegisterOpt) error

	// 使用指定名称注册对象
	// opts添加bean注册的配置，详情查看bean.RegisterOpt
	RegisterBeanByName(name string, o interface{}, opts ...bean.RegisterOpt) error

	// 注册bean定义
	RegisterDefinition(name string, def bean.AbstractDefinition, opts ...bean.RegisterOpt) error

	// 根据名称获得对象，如果容器中包含该对象，则返回对象和true否则返回nil和false
	GetBean(name string) (interface{}, bool)

	// 增加bean定义注册器，在Start时最先执行
	AddRegistrar(r Registrar) error

	// 增加对象处理器，用于对对象进行分类和处理
	AddProcessor(processor.Processor) error

	// 启动应用
	Start() error

	// 关闭，用于资源回收
	Close() error
}

// Registrar 在bean实例化之前向注册表中注册bean定义
type Registrar interface {
	RegisterDefinitions(registry bean.Registry) error
}

type EnvironmentAware interface {
	// 装配Environment
	// Registrar在RegisterDefinitions之前调用，bean在实例化之后、BeanAfterSet之前调用
	SetEnvironment(e *env.Environment)
}

type ApplicationContextAware interface {
	// 装配ApplicationContext
	// 在bean实例化之后、BeanAfterSet之前调用
	SetApplicationContext(ctx ApplicationContext)
}
