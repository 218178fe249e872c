// Package shell implements jsh, the line interpreter.
//
// Each line goes through the steps laid out in
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
// in a reduced form:
//
//  1. The line is parsed into statements by mvdan.cc/sh/v3/syntax.
//  2. Lists (;, &&, ||) and trailing & are handled here, anything but simple
//     commands and pipelines is rejected.
//  3. Each pipeline is expanded and turned into a job.CommandVector.
//  4. The job executor runs the vector and the last stage's status becomes $?.
package shell
