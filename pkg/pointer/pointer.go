package pointer

func ToPtr[T any](v T) *T {
	return &v
}

// ValueOr 解引用, 空指针时返回默认值
func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
