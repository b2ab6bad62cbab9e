// Package relgraph converts rows of relational data into a Neo4j property
// graph, driven entirely by a declarative conversion schema.
//
// # Architecture
//
// The pipeline has four cooperating subsystems:
//
//	┌─────────────────────────────────────┐
//	│         Schema Compiler             │  schema text → entity plans
//	│    (schema, registry packages)      │  wrapper resolution
//	└─────────────────────────────────────┘
//	           ↓ compiles into
//	┌─────────────────────────────────────┐
//	│          Factory Graph              │  resource → subgraph
//	│        (factory package)            │  wrappers, matchers, supplies
//	└─────────────────────────────────────┘
//	           ↓ driven by
//	┌─────────────────────────────────────┐
//	│        Execution Engine             │  two-phase pipeline,
//	│       (converter package)           │  batching, checkpointing
//	└─────────────────────────────────────┘
//	           ↓ commits through
//	┌─────────────────────────────────────┐
//	│          Graph Writer               │  batched MERGE/CREATE/MATCH
//	│    (writer, neo4jdb packages)       │  one transaction per batch
//	└─────────────────────────────────────┘
//
// Conversion runs in two ordered phases over the resource iterator: the node
// phase commits every node, then the relationship phase re-traverses the
// iterator and commits relationships. This guarantees that relationships
// matching nodes produced by other entity types always find their targets.
//
// # Usage
//
// Write a conversion schema, wrap your rows in a resource iterator (the
// relational/memory and relational/sqlite packages provide ready-made
// adapters), connect to Neo4j and run:
//
//	db, err := neo4jdb.Connect(ctx, neo4jdb.DefaultConfig(), logger)
//	w := writer.NewWriter(db, writer.DefaultConfig(), logger, nil)
//	conv, err := converter.New(schemaText, converter.Deps{
//	    Iterator:    iterator,
//	    Writer:      w,
//	    GraphDriver: db.Driver(),
//	}, converter.DefaultConfig())
//	err = conv.Run(ctx)
//
// Custom behaviour is added through wrappers registered before the converter
// is constructed (see the registry package); the commonmodules package ships
// the built-in type-conversion wrappers.
package relgraph
