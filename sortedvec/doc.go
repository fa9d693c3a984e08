// Package sortedvec provides a sorted vector as a static structure for
// dynamize, together with a priority queue and an associative array built on
// top of a dynamized container.
//
//	q, _ := sortedvec.NewQueue(cmp.Compare[int])
//	_ = q.Push(3)
//	_ = q.Push(7)
//	top, _, _ := q.Pop() // 7
package sortedvec
