package services

import (
	"sort"

	"zugzwang/internal/models"
	"zugzwang/internal/utils"
)

// ThreadNode is a comment with its replies nested below it.
type ThreadNode struct {
	models.Comment
	Replies []*ThreadNode `json:"replies"`
}

// BuildTree nests a flat comment list into a reply forest.
//
// A comment whose parent is missing from the list becomes a root. Comments that sit on a
// parent cycle become roots too, which breaks the cycle. Siblings are ordered by score
// (high first), then newer first, at every depth.
func BuildTree(comments []models.Comment) []*ThreadNode {
	nodes := make(map[uint]*ThreadNode, len(comments))
	order := make([]*ThreadNode, 0, len(comments))
	for i := range comments {
		if _, dup := nodes[comments[i].ID]; dup {
			continue
		}
		n := &ThreadNode{Comment: comments[i], Replies: []*ThreadNode{}}
		nodes[n.ID] = n
		order = append(order, n)
	}

	isRoot := make(map[uint]bool)
	resolved := make(map[uint]bool, len(order))
	for _, n := range order {
		path := make([]uint, 0, 4)
		onPath := make(map[uint]int)
		cur := n.ID
		for !resolved[cur] {
			if at, seen := onPath[cur]; seen {
				for _, id := range path[at:] {
					isRoot[id] = true
				}
				break
			}
			onPath[cur] = len(path)
			path = append(path, cur)

			parentID := nodes[cur].ParentID
			if parentID == nil {
				isRoot[cur] = true
				break
			}
			if _, ok := nodes[*parentID]; !ok {
				isRoot[cur] = true
				break
			}
			cur = *parentID
		}
		for _, id := range path {
			resolved[id] = true
		}
	}

	roots := make([]*ThreadNode, 0)
	for _, n := range order {
		if isRoot[n.ID] {
			roots = append(roots, n)
			continue
		}
		parent := nodes[*n.ParentID]
		parent.Replies = append(parent.Replies, n)
	}

	sortThread(roots)
	return roots
}

func sortThread(roots []*ThreadNode) {
	stack := [][]*ThreadNode{roots}
	for len(stack) > 0 {
		level := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sort.SliceStable(level, func(i, j int) bool {
			return utils.Less(utils.CommentRank{Comment: &level[i].Comment}, utils.CommentRank{Comment: &level[j].Comment},
				models.SortLikes, models.OrderDesc)
		})
		for _, n := range level {
			if len(n.Replies) > 0 {
				stack = append(stack, n.Replies)
			}
		}
	}
}
