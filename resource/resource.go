// Copyright (C) 2019-2021, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package resource

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	envResourceDir = "ENV_RESOURCE_DIR"

	// 资源根目录下第一个匹配的资源
	PrefixClasspath = "classpath:"
	// 资源根目录下所有匹配的资源
	PrefixClasspathAll = "classpath*:"
	// 文件系统URL
	PrefixFile = "file:"
)

var root string

type Resource interface {
	// 资源描述，通常是原始位置
	Description() string

	// 资源是否存在
	Exists() bool

	// 打开资源，调用者负责关闭
	Open() (io.ReadCloser, error)
}

// FileSystemResource 文件系统中的资源
type FileSystemResource struct {
	path string
}

func NewFileSystemResource(path string) *FileSystemResource {
	return &FileSystemResource{path: filepath.Clean(path)}
}

func (r *FileSystemResource) Path() string {
	return r.path
}

func (r *FileSystemResource) Description() string {
	return "file [" + r.path + "]"
}

func (r *FileSystemResource) Exists() bool {
	info, err := os.Stat(r.path)
	return err == nil && !info.IsDir()
}

func (r *FileSystemResource) Open() (io.ReadCloser, error) {
	return os.Open(r.path)
}

// FileURLResource 通过file: URL定位的资源
type FileURLResource struct {
	FileSystemResource
	url string
}

func NewFileURLResource(location string) (*FileURLResource, error) {
	path, err := fileURLPath(location)
	if err != nil {
		return nil, err
	}
	return &FileURLResource{
		FileSystemResource: FileSystemResource{path: filepath.Clean(path)},
		url:                location,
	}, nil
}

// fileURLPath 获得file: URL中的文件路径，保留路径中的通配符
func fileURLPath(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", errors.New("Not a file URL: " + location)
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	// '?'是通配符，不作为查询参数
	if u.ForceQuery || u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}

func (r *FileURLResource) URL() string {
	return r.url
}

func (r *FileURLResource) Description() string {
	return "URL [" + r.url + "]"
}

// BytesResource 内存中的资源
type BytesResource struct {
	desc string
	data []byte
}

func NewBytesResource(desc string, data []byte) *BytesResource {
	return &BytesResource{desc: desc, data: data}
}

func (r *BytesResource) Description() string {
	return r.desc
}

func (r *BytesResource) Exists() bool {
	return true
}

func (r *BytesResource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(r.data))), nil
}

func IsFileURLResource(r Resource) bool {
	_, ok := r.(*FileURLResource)
	return ok
}

// IsFileBasedResource 判断资源是否基于文件系统
func IsFileBasedResource(r Resource) bool {
	_, ok := r.(*FileSystemResource)
	return ok || IsFileURLResource(r)
}

// GetRoot 获得资源根目录，环境变量ENV_RESOURCE_DIR优先
func GetRoot() string {
	dir := os.Getenv(envResourceDir)
	if dir == "" {
		dir = root
	}
	return dir
}

func SetRoot(dir string) {
	root = dir
}

// GetResource 获得资源根目录下的文件路径
func GetResource(relFilePath string) string {
	return filepath.Join(GetRoot(), relFilePath)
}

// Resolve 解析资源位置，支持classpath:、classpath*:、file:前缀及通配符。
// 没有匹配的资源时返回空列表，仅在位置格式错误时返回error。
func Resolve(location string) ([]Resource, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, nil
	}
	switch {
	case strings.HasPrefix(location, PrefixClasspathAll):
		return glob(GetResource(strings.TrimPrefix(location, PrefixClasspathAll)), false)
	case strings.HasPrefix(location, PrefixClasspath):
		return glob(GetResource(strings.TrimPrefix(location, PrefixClasspath)), true)
	case strings.HasPrefix(location, PrefixFile):
		return globFileURL(location)
	default:
		return glob(location, false)
	}
}

// globFileURL file:位置同样支持通配符，每个匹配的文件返回一个FileURLResource
func globFileURL(location string) ([]Resource, error) {
	pattern, err := fileURLPath(location)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	var ret []Resource
	for _, m := range matches {
		u := location
		if filepath.Clean(m) != filepath.Clean(pattern) {
			u = fileURLOf(m)
		}
		r := &FileURLResource{
			FileSystemResource: FileSystemResource{path: filepath.Clean(m)},
			url:                u,
		}
		if r.Exists() {
			ret = append(ret, r)
		}
	}
	return ret, nil
}

func fileURLOf(path string) string {
	if filepath.IsAbs(path) {
		return "file://" + filepath.ToSlash(path)
	}
	return PrefixFile + filepath.ToSlash(path)
}

func glob(pattern string, first bool) ([]Resource, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	var ret []Resource
	for _, m := range matches {
		r := NewFileSystemResource(m)
		if !r.Exists() {
			continue
		}
		ret = append(ret, r)
		if first {
			break
		}
	}
	return ret, nil
}
