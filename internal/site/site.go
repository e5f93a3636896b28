// Package site 内置一个演示站点，未配置 AssetsPath 时作为默认资源源。
// static/css/site.css.gz 是预先生成的旁路文件，用于演示 bundle 模式的旁路挂载。
package site

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// FS 返回以 static 为根的文件系统，路径形如 "index.html"、"css/site.css"。
func FS() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
