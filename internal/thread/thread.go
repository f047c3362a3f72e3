// Package thread собирает плоский список ответов поста в дерево обсуждения.
package thread

import (
	"github.com/VitaminP8/alumni-forum/internal/model"
)

// Reason - почему ответ не попал в дерево.
type Reason string

const (
	ReasonDanglingParent   Reason = "dangling_parent"   // родителя нет во входном списке
	ReasonSelfReference    Reason = "self_reference"    // parent_reply_id == id
	ReasonCycle            Reason = "cycle"             // ответ лежит на цикле родителей
	ReasonOrphanedAncestor Reason = "orphaned_ancestor" // один из предков сам исключен
	ReasonDuplicateID      Reason = "duplicate_id"      // id уже встречался раньше
)

// Exclusion описывает ответ, который не удалось разместить в дереве.
type Exclusion struct {
	ID       uint   `json:"id"`
	ParentID *uint  `json:"parent_reply_id,omitempty"`
	Reason   Reason `json:"reason"`
}

// Forest - результат сборки: корневые ответы (с вложенными NestedReplies)
// и список исключенных ответов в порядке входа.
type Forest struct {
	Replies  []*model.Reply
	Excluded []Exclusion
}

// Build строит лес ответов из плоского списка.
//
// Порядок соседей совпадает с порядком во входе. Входные записи не меняются:
// каждый узел результата - копия записи со своим срезом NestedReplies.
// Ответ, который недостижим от корневого уровня, не выводится, а попадает
// в Excluded с причиной. Результат никогда не содержит циклов.
func Build(replies []*model.Reply) *Forest {
	forest := &Forest{Replies: []*model.Reply{}}

	nodes := make(map[uint]*model.Reply, len(replies))
	duplicates := make(map[int]bool)

	// Первый проход: по копии на каждый id
	for i, r := range replies {
		if r == nil {
			continue
		}
		if _, exists := nodes[r.ID]; exists {
			duplicates[i] = true
			continue
		}
		node := *r
		node.NestedReplies = []*model.Reply{}
		nodes[r.ID] = &node
	}

	// Второй проход: привязываем к родителю в порядке входа
	for i, r := range replies {
		if r == nil || duplicates[i] {
			continue
		}
		node := nodes[r.ID]

		if isTopLevel(r) {
			forest.Replies = append(forest.Replies, node)
			continue
		}
		// к самому себе не привязываем, иначе получим цикл указателей
		if *r.ParentReplyID == r.ID {
			continue
		}
		if parent, ok := nodes[*r.ParentReplyID]; ok {
			parent.NestedReplies = append(parent.NestedReplies, node)
		}
	}

	visible := make(map[uint]bool, len(nodes))
	Walk(forest.Replies, func(_ int, r *model.Reply) {
		visible[r.ID] = true
	})

	reasons := make(map[uint]Reason)
	for i, r := range replies {
		if r == nil {
			continue
		}
		if duplicates[i] {
			forest.Excluded = append(forest.Excluded, newExclusion(r, ReasonDuplicateID))
			continue
		}
		if visible[r.ID] {
			continue
		}
		forest.Excluded = append(forest.Excluded, newExclusion(r, classify(r.ID, nodes, reasons)))
	}

	return forest
}

// Len возвращает число ответов, которые попали в дерево.
func (f *Forest) Len() int {
	n := 0
	Walk(f.Replies, func(int, *model.Reply) { n++ })
	return n
}

// ExcludedByReason считает исключенные ответы по причинам.
func (f *Forest) ExcludedByReason() map[Reason]int {
	counts := make(map[Reason]int)
	for _, e := range f.Excluded {
		counts[e.Reason]++
	}
	return counts
}

// Walk обходит дерево в прямом порядке. depth у корневых ответов равен 0.
func Walk(roots []*model.Reply, fn func(depth int, r *model.Reply)) {
	type item struct {
		reply *model.Reply
		depth int
	}

	stack := make([]item, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, item{reply: roots[i]})
	}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fn(cur.depth, cur.reply)

		children := cur.reply.NestedReplies
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{reply: children[i], depth: cur.depth + 1})
		}
	}
}

// Flatten возвращает ответы дерева в прямом порядке обхода.
func Flatten(roots []*model.Reply) []*model.Reply {
	var out []*model.Reply
	Walk(roots, func(_ int, r *model.Reply) {
		out = append(out, r)
	})
	return out
}

// isTopLevel - нет родителя. parent_reply_id = 0 тоже считается корнем,
// id ответов начинаются с 1.
func isTopLevel(r *model.Reply) bool {
	return r.ParentReplyID == nil || *r.ParentReplyID == 0
}

func newExclusion(r *model.Reply, reason Reason) Exclusion {
	e := Exclusion{ID: r.ID, Reason: reason}
	if r.ParentReplyID != nil {
		pid := *r.ParentReplyID
		e.ParentID = &pid
	}
	return e
}

// classify определяет причину для недостижимого узла id.
// Идет вверх по родителям до первой известной причины, петли на себя,
// отсутствующего родителя или повтора в цепочке, и размечает всю цепочку.
func classify(id uint, nodes map[uint]*model.Reply, reasons map[uint]Reason) Reason {
	if reason, ok := reasons[id]; ok {
		return reason
	}

	var chain []uint
	onChain := make(map[uint]int)

	markOrphaned := func(upTo int) {
		for _, cid := range chain[:upTo] {
			reasons[cid] = ReasonOrphanedAncestor
		}
	}

	cur := id
	for {
		if _, known := reasons[cur]; known {
			markOrphaned(len(chain))
			break
		}

		onChain[cur] = len(chain)
		chain = append(chain, cur)

		parent := nodes[cur].ParentReplyID
		if isTopLevel(nodes[cur]) {
			// недостижимый узел всегда имеет родителя, сюда не попадаем
			reasons[cur] = ReasonOrphanedAncestor
			markOrphaned(len(chain) - 1)
			break
		}

		if *parent == cur {
			reasons[cur] = ReasonSelfReference
			markOrphaned(len(chain) - 1)
			break
		}

		if _, ok := nodes[*parent]; !ok {
			reasons[cur] = ReasonDanglingParent
			markOrphaned(len(chain) - 1)
			break
		}

		if idx, ok := onChain[*parent]; ok {
			for _, cid := range chain[idx:] {
				reasons[cid] = ReasonCycle
			}
			markOrphaned(idx)
			break
		}

		cur = *parent
	}

	return reasons[id]
}
