package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// 待办引用语法（不区分大小写）：
//
//	@todo:42 / #todo-42    按 ID
//	@todo:"quoted phrase"  按标题子串
//	@todo:some-slug        连字符/下划线还原为空格后按标题子串
var (
	todoIDPattern     = regexp.MustCompile(`(?i)(?:@todo:|#todo-)(\d+)\b`)
	todoQuotedPattern = regexp.MustCompile(`(?i)@todo:"([^"\n]+)"`)
	todoSlugPattern   = regexp.MustCompile(`(?i)@todo:([\w-]+)`)
	allDigits         = regexp.MustCompile(`^\d+$`)
)

// ReferenceSet 从文本中提取的引用：数字 ID 与标题短语，均已去重
type ReferenceSet struct {
	IDs     []uint
	Phrases []string
}

// IsEmpty 是否未提取到任何引用
func (s ReferenceSet) IsEmpty() bool {
	return len(s.IDs) == 0 && len(s.Phrases) == 0
}

// ParseReferences 纯文本解析，不访问存储。ID 升序，短语按首次出现顺序
func ParseReferences(text string) ReferenceSet {
	var set ReferenceSet
	if text == "" {
		return set
	}

	seenID := make(map[uint]bool)
	for _, m := range todoIDPattern.FindAllStringSubmatch(text, -1) {
		// 超出 BIGINT 范围的 ID 不可能存在
		id, err := strconv.ParseUint(m[1], 10, 63)
		if err != nil || id == 0 || seenID[uint(id)] {
			continue
		}
		seenID[uint(id)] = true
		set.IDs = append(set.IDs, uint(id))
	}
	sort.Slice(set.IDs, func(i, j int) bool { return set.IDs[i] < set.IDs[j] })

	seenPhrase := make(map[string]bool)
	addPhrase := func(p string) {
		p = strings.Join(strings.Fields(p), " ")
		key := strings.ToLower(p)
		if p == "" || seenPhrase[key] {
			return
		}
		seenPhrase[key] = true
		set.Phrases = append(set.Phrases, p)
	}

	for _, m := range todoQuotedPattern.FindAllStringSubmatch(text, -1) {
		addPhrase(m[1])
	}
	for _, m := range todoSlugPattern.FindAllStringSubmatch(text, -1) {
		slug := m[1]
		// 纯数字已按 ID 处理
		if allDigits.MatchString(slug) {
			continue
		}
		addPhrase(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	}

	return set
}
