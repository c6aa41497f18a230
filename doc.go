// Package srl evaluates semantic role labeling systems.
//
// An Evaluator sends every sentence of a gold dataset to a prediction
// source and scores the returned annotations with four cascaded metrics:
// predicate identification, predicate disambiguation, argument
// identification and argument classification.
//
// # Quick Start
//
//	gold, err := dataset.Load("dev.json", dataset.DefaultNullTag)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ev, err := srl.New(predictor.NewClient("http://127.0.0.1:12345"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rep, err := ev.Evaluate(ctx, gold)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("argument classification F1: %.4f\n", rep.Results.ArgumentClassification.F1)
//
// Predictions already on disk can be scored without an Evaluator:
//
//	results, err := srl.Score(gold, preds)
//
// # Thread Safety
//
// Evaluator is safe for concurrent use. Predict keeps at most
// WithConcurrency requests in flight; scoring folds sentences on up to
// WithWorkers goroutines.
//
// # Data Files
//
// Datasets are JSON objects keyed by sentence id. See package dataset for
// the record layout and for the CoNLL-2009 reader.
package srl
