package repo

import (
	"net/url"
	"strconv"
	"strings"
)

// 保留的查询参数，其余 key 都按等值过滤尝试
const (
	ParamPage  = "page"
	ParamLimit = "limit"
	ParamWith  = "with"
)

// Query 是解析后的列表请求；Page/Limit 为 0 表示未提供或非法，由仓储套默认值
type Query struct {
	Page    int
	Limit   int
	Filters map[string][]string
	With    []string
}

// ParseQuery 从 URL 查询串构造 Query
func ParseQuery(v url.Values) Query {
	q := Query{
		Page:    atoi(v.Get(ParamPage)),
		Limit:   atoi(v.Get(ParamLimit)),
		Filters: make(map[string][]string, len(v)),
	}
	for _, w := range v[ParamWith] {
		for _, rel := range strings.Split(w, ",") {
			if rel = strings.TrimSpace(rel); rel != "" {
				q.With = append(q.With, rel)
			}
		}
	}
	for k, vals := range v {
		switch k {
		case ParamPage, ParamLimit, ParamWith:
			continue
		}
		q.Filters[k] = vals
	}
	return q
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Page 列表响应体
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}
