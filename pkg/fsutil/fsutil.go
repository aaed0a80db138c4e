package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExistsExact 大小写敏感地判断 parent 下是否存在名为 name 的条目
// 通过目录列表比较实现, 在大小写不敏感的文件系统上同样严格
func ExistsExact(parent, name string) (fs.DirEntry, bool) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, false
	}
	for _, e := range entries {
		if e.Name() == name {
			return e, true
		}
	}
	return nil, false
}

// PathExistsExact 逐级大小写敏感地判断 root 下的相对路径 rel 是否存在
func PathExistsExact(root, rel string) bool {
	_, ok := EntryExact(root, rel)
	return ok
}

// EntryExact 逐级大小写敏感地查找 root 下的相对路径 rel
func EntryExact(root, rel string) (fs.DirEntry, bool) {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if rel == "." || rel == "" {
		return nil, false
	}
	current := root
	var entry fs.DirEntry
	for _, part := range strings.Split(rel, "/") {
		e, ok := ExistsExact(current, part)
		if !ok {
			return nil, false
		}
		entry = e
		current = filepath.Join(current, part)
	}
	return entry, true
}

// RemoveAll 删除目录, 目录不存在时不报错
func RemoveAll(path string) error {
	if path == "" {
		return nil
	}
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s failed: %w", path, err)
	}
	return nil
}

// CopyFilter 返回 false 时跳过该文件, rel 为相对源目录的路径
type CopyFilter func(rel string, d fs.DirEntry) bool

// CopyTree 将 src 下的文件复制到 dst, 覆盖已存在的同名文件
func CopyTree(src, dst string, filter CopyFilter) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(dst, 0o755)
		}
		if d.IsDir() {
			return nil
		}
		if filter != nil && !filter(rel, d) {
			return nil
		}
		if !d.Type().IsRegular() {
			// 符号链接等特殊文件不复制
			return nil
		}
		return CopyFile(path, filepath.Join(dst, rel))
	})
}

// CopyFile 复制单个文件, 自动创建父目录
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// IsDirEmpty 判断目录是否为空或不存在
func IsDirEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	if err != nil {
		return true
	}
	return len(entries) == 0
}
