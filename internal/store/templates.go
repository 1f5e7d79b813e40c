package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jigar48949/Files-and-folder-directory/internal/infra/fsx"
)

const templatesName = "templates.yaml"

// Template 是一份可复用的结构定义。
type Template struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Structure   string    `yaml:"structure" json:"structure"`
	Created     time.Time `yaml:"created" json:"created"`
}

type templatesFile struct {
	Templates []Template `yaml:"templates"`
}

func (s *Store) loadTemplates() (templatesFile, error) {
	var tf templatesFile
	b, err := os.ReadFile(filepath.Join(s.dir, templatesName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tf, nil
		}
		return tf, fmt.Errorf("读取模板失败：%w", err)
	}
	if err := yaml.Unmarshal(b, &tf); err != nil {
		return tf, fmt.Errorf("解析模板文件失败（%s）：%w", filepath.Join(s.dir, templatesName), err)
	}
	return tf, nil
}

func (s *Store) saveTemplates(tf templatesFile) error {
	b, err := yaml.Marshal(tf)
	if err != nil {
		return fmt.Errorf("序列化模板失败：%w", err)
	}
	if err := fsx.WriteFileAtomicReplace(s.dir, templatesName, b); err != nil {
		return fmt.Errorf("写入模板失败：%w", err)
	}
	return nil
}

// SaveTemplate 保存模板，同名覆盖（旧的移除，新的追加到末尾）。
// 名称与结构文本都不能为空；Created 为零值时取当前时间。
func (s *Store) SaveTemplate(t Template) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return errors.New("模板名不能为空")
	}
	if strings.TrimSpace(t.Structure) == "" {
		return errors.New("模板的结构定义不能为空")
	}
	if t.Created.IsZero() {
		t.Created = time.Now().UTC()
	}

	tf, err := s.loadTemplates()
	if err != nil {
		return err
	}
	kept := tf.Templates[:0]
	for _, old := range tf.Templates {
		if old.Name != t.Name {
			kept = append(kept, old)
		}
	}
	tf.Templates = append(kept, t)
	return s.saveTemplates(tf)
}

// ListTemplates 返回全部模板，按名称排序（不区分大小写）。
func (s *Store) ListTemplates() ([]Template, error) {
	tf, err := s.loadTemplates()
	if err != nil {
		return nil, err
	}
	out := make([]Template, len(tf.Templates))
	copy(out, tf.Templates)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// GetTemplate 按名字取模板。不存在返回 ok=false。
func (s *Store) GetTemplate(name string) (Template, bool, error) {
	tf, err := s.loadTemplates()
	if err != nil {
		return Template{}, false, err
	}
	for _, t := range tf.Templates {
		if t.Name == name {
			return t, true, nil
		}
	}
	return Template{}, false, nil
}

// DeleteTemplate 删除指定模板；不存在算错误。
func (s *Store) DeleteTemplate(name string) error {
	tf, err := s.loadTemplates()
	if err != nil {
		return err
	}
	kept := tf.Templates[:0]
	found := false
	for _, t := range tf.Templates {
		if t.Name == name {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return fmt.Errorf("模板 %q 不存在", name)
	}
	tf.Templates = kept
	return s.saveTemplates(tf)
}

// ExportTemplate 把单个模板导出成独立 YAML 文件。
func (s *Store) ExportTemplate(name, outPath string) error {
	t, ok, err := s.GetTemplate(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("模板 %q 不存在", name)
	}
	b, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("序列化模板失败：%w", err)
	}
	if err := fsx.WriteFileAtomicReplace(filepath.Dir(outPath), filepath.Base(outPath), b); err != nil {
		return fmt.Errorf("导出模板失败：%w", err)
	}
	return nil
}

// ImportTemplate 从独立 YAML 文件导入模板，同名覆盖。
// 文件必须带 name 和 structure；description 缺省为空，created 缺省取当前时间。
func (s *Store) ImportTemplate(srcPath string) (Template, error) {
	b, err := os.ReadFile(srcPath)
	if err != nil {
		return Template{}, fmt.Errorf("读取模板文件失败：%w", err)
	}
	var t Template
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Template{}, fmt.Errorf("解析模板文件失败（%s）：%w", srcPath, err)
	}
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Structure) == "" {
		return Template{}, fmt.Errorf("模板文件格式不对：必须包含 name 和 structure（%s）", srcPath)
	}
	if err := s.SaveTemplate(t); err != nil {
		return Template{}, err
	}
	return t, nil
}
