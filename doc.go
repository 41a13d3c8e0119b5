// Package goviewset serves GORM models as paginated JSON resources.
//
// Overview
//
// goviewset provides three building blocks that can be used on their own or
// combined through Resource:
//   - DeprecationPagination: limit/offset pagination that is migrating to a
//     hard maximum limit. Over-limit requests are still honoured but the
//     page carries a warning in its meta.
//   - Delete preview: a Collector walks every row that would be removed
//     along ON DELETE CASCADE relationships, without deleting anything.
//     Rows of secret models, such as API tokens, are redacted.
//   - SelectSubclasses: a GORM scope that loads the subclass tables of a
//     base model in the same query set.
//
// Key concepts
//   - LimitOffsetPager: applies LIMIT/OFFSET and ordering to GORM queries and
//     builds next/previous links.
//   - Orderings: defines multi-column ordering with explicit directions,
//     parsed from the "ordering" query parameter.
//   - Page: the {"count", "next", "previous", "results", "meta"} envelope.
//
// See examples/dojo-api for a complete server.
package goviewset
