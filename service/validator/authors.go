package validator

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/to404hanga/submission_controller/entity"
	"github.com/to404hanga/submission_controller/pkg/errs"
	"github.com/to404hanga/submission_controller/pkg/fsutil"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
)

// ParseAuthors 解析项目根目录下的 AUTHORS.txt, 每行格式为 "学号;姓名"
func ParseAuthors(root string) ([]entity.Author, error) {
	entry, ok := fsutil.ExistsExact(root, AuthorsFile)
	if !ok || entry.IsDir() {
		return nil, errs.ValidationError(errs.ReasonAuthorsMissing,
			fmt.Sprintf("The project does not contain an '%s' file at the root", AuthorsFile))
	}

	raw, err := os.ReadFile(filepath.Join(root, AuthorsFile))
	if err != nil {
		return nil, &errs.Error{
			Kind:    errs.KindValidation,
			Reason:  errs.ReasonAuthorsUnreadable,
			Message: fmt.Sprintf("The '%s' file could not be read", AuthorsFile),
			Err:     err,
		}
	}
	content, err := decode(raw)
	if err != nil {
		return nil, &errs.Error{
			Kind:    errs.KindValidation,
			Reason:  errs.ReasonAuthorsUnreadable,
			Message: fmt.Sprintf("The '%s' file has an unsupported encoding", AuthorsFile),
			Err:     err,
		}
	}

	var (
		authors  []entity.Author
		problems []string
		seen     = make(map[string]int)
		lineNo   int
	)
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(stripInvisible(sc.Text()))
		if line == "" {
			continue
		}
		author, problem := parseLine(line)
		if problem != "" {
			problems = append(problems, fmt.Sprintf("line %d: %s", lineNo, problem))
			continue
		}
		if prev, dup := seen[author.StudentID]; dup {
			problems = append(problems, fmt.Sprintf("line %d: student id '%s' already appears on line %d", lineNo, author.StudentID, prev))
			continue
		}
		seen[author.StudentID] = lineNo
		authors = append(authors, author)
	}
	if err = sc.Err(); err != nil {
		return nil, &errs.Error{
			Kind:    errs.KindValidation,
			Reason:  errs.ReasonAuthorsUnreadable,
			Message: fmt.Sprintf("The '%s' file could not be read", AuthorsFile),
			Err:     err,
		}
	}

	if len(problems) > 0 {
		return nil, errs.ValidationError(errs.ReasonAuthorsMalformed,
			fmt.Sprintf("The '%s' file is malformed", AuthorsFile), problems...)
	}
	if len(authors) == 0 {
		return nil, errs.ValidationError(errs.ReasonAuthorsEmpty,
			fmt.Sprintf("The '%s' file does not list any author", AuthorsFile))
	}
	return authors, nil
}

func parseLine(line string) (entity.Author, string) {
	parts := strings.Split(line, ";")
	if len(parts) != 2 {
		return entity.Author{}, "expected the format 'id;name'"
	}
	id := strings.TrimSpace(parts[0])
	if id == "" || SanitizeID(id) != id {
		return entity.Author{}, fmt.Sprintf("'%s' is not a valid student id", id)
	}
	// 组合字符统一为 NFC, 同一姓名的不同编码视为相同
	name := norm.NFC.String(strings.Join(strings.Fields(parts[1]), " "))
	if len(strings.Fields(name)) < 2 {
		return entity.Author{}, fmt.Sprintf("'%s' must contain first name and surname", name)
	}
	return entity.Author{StudentID: id, Name: name}, ""
}

// SanitizeID 仅保留字母, 数字, '_' 与 '-'
func SanitizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// decode 根据内容探测编码并转换为 UTF-8, 无法判断时按 UTF-8 处理
func decode(raw []byte) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(raw, "text/plain")
	if enc == nil || name == "utf-8" {
		return bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf")), nil
	}
	return enc.NewDecoder().Bytes(raw)
}

// stripInvisible 去除 BOM 和零宽字符等不可见字符, 不换行空格视为普通空格
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\uFEFF', '\u200B', '\u200C', '\u200D':
			return -1
		case '\u00A0':
			return ' '
		}
		if unicode.IsControl(r) && r != '\t' {
			return -1
		}
		return r
	}, s)
}
