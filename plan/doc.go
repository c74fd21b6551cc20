package plan

// The following documentation describes how a parsed query moves through
// this package on its way to code generation.
//
// 1) Schema
//    Supplied externally (there is no FROM clause to scan a table from):
//    an ordered column name -> (field index, datatype) mapping, built by
//    ParseSchema from the CLI's "name:type,..." format or directly via
//    NewSchema.
//
// 2) Resolve
//    A single walk over the query's projections and WHERE expression.
//    For every node it determines a Datatype (§3/§4.2's rules) and, for
//    every AggregateFunction node, mints a process-unique id via a
//    monotonic counter -- never by Go pointer identity. The walk also
//    enforces the semantic error kinds that aren't purely grammatical:
//    UnknownColumn, UnknownFunction, BadLimit, DuplicateProjectionName,
//    AggregateInWhere, NestedAggregate, TypeError.
//
//    Unlike the table/join/group-by/having/sort pipeline a full SQL
//    engine would need, there is no separate grouping phase here:
//    grouping is implicit (the non-aggregate projections ARE the group
//    key) and happens inline during code generation, not during
//    resolution.
//
// 3) Resolved
//    The bundle cg.Generate consumes: the query, schema, dialect, the
//    derived output_schema, and the per-node type/aggregate-id tables
//    keyed by AST pointer (the AST itself stays immutable, per §3's
//    Lifecycle -- results live alongside it, not mutated into it).
