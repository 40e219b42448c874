// Package rag implements the retrieval-augmented query pipeline behind the
// /chat endpoint.
//
// The pipeline has four parts:
//   - Materialize renders location_metrics rows as sentences (Documents)
//   - FlatIndex is an exact squared-L2 nearest-neighbour index over their embeddings
//   - Engine embeds a question, retrieves the closest Documents, renders the
//     prompt template and calls the Generator
//   - Manager owns the KnowledgeBase lifecycle: build once, publish
//     atomically, rebuild off to the side on reload
//
// Embedding and generation are delegated to the Embedder and Generator
// ports; this package never talks to a model server directly.
package rag
