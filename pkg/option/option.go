package option

// Option 表示一个可能不存在的值, 用于仓储查询边界的 Found / NotFound
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

// Get 返回值以及是否存在
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Option[T]) IsSome() bool {
	return o.ok
}

func (o Option[T]) IsNone() bool {
	return !o.ok
}

// OrElse 不存在时返回默认值
func (o Option[T]) OrElse(def T) T {
	if o.ok {
		return o.value
	}
	return def
}
