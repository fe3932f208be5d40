// Package listsync содержит чистые функции слияния и переключения
// пользовательских списков (корзина, список желаний) по идентичности позиции.
package listsync

// Keyed - позиция списка с ключом идентичности (ID книги)
type Keyed interface {
	Key() int64
}

// Merge объединяет гостевой список с серверным.
// При совпадении ключа побеждает гостевая позиция. Порядок результата:
// позиции серверного списка в их порядке, затем позиции, которые есть только у гостя.
// Повторы ключа внутри одного входа схлопываются, последняя запись выигрывает.
func Merge[T Keyed](guest, remote []T) []T {
	guestByKey := make(map[int64]T, len(guest))
	for _, item := range guest {
		guestByKey[item.Key()] = item
	}

	merged := make([]T, 0, len(guest)+len(remote))
	index := make(map[int64]int, len(guest)+len(remote))

	put := func(item T) {
		if i, ok := index[item.Key()]; ok {
			merged[i] = item
			return
		}
		index[item.Key()] = len(merged)
		merged = append(merged, item)
	}

	for _, item := range remote {
		if g, ok := guestByKey[item.Key()]; ok {
			put(g)
			continue
		}
		put(item)
	}
	for _, item := range guest {
		if _, seen := index[item.Key()]; seen {
			continue
		}
		put(guestByKey[item.Key()])
	}
	return merged
}

// Toggle удаляет позицию с тем же ключом, если она есть, иначе добавляет её в конец.
// Входной срез не изменяется.
func Toggle[T Keyed](list []T, item T) []T {
	out := make([]T, 0, len(list)+1)
	found := false
	for _, existing := range list {
		if existing.Key() == item.Key() {
			found = true
			continue
		}
		out = append(out, existing)
	}
	if !found {
		out = append(out, item)
	}
	return out
}

// Contains проверяет наличие ключа
func Contains[T Keyed](list []T, key int64) bool {
	for _, item := range list {
		if item.Key() == key {
			return true
		}
	}
	return false
}

// Remove удаляет позицию по ключу; второй результат false, если её не было
func Remove[T Keyed](list []T, key int64) ([]T, bool) {
	out := make([]T, 0, len(list))
	removed := false
	for _, item := range list {
		if item.Key() == key {
			removed = true
			continue
		}
		out = append(out, item)
	}
	return out, removed
}

// Dedupe оставляет по одной позиции на ключ (последняя выигрывает, место - первого появления)
func Dedupe[T Keyed](list []T) []T {
	return Merge[T](nil, list)
}

// Keys возвращает ключи в порядке списка
func Keys[T Keyed](list []T) []int64 {
	keys := make([]int64, 0, len(list))
	for _, item := range list {
		keys = append(keys, item.Key())
	}
	return keys
}
