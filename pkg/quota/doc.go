/*
Package quota implements per-pool resource accounting and enforcement.

The engine projects each admission request onto the pool's usage row and
decides ALLOW, ALLOW_WITH_WARNING or BLOCK according to the quota policy
(HARD, SOFT, ADVISORY). Violations are persisted and broadcast; threshold
crossings surface as alerts. A background loop re-checks current usage at
a fixed interval. Usage mutations are serialized per pool.
*/
package quota
