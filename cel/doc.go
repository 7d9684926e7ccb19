// Package cel provides an implementation of the numclass Evaluator interface
// backed by Google's cel-go expression engine.
//
// See https://github.com/google/cel-go and https://opensource.google/projects/cel for more information
// about CEL.
//
// Rule Syntax
//
// Lambda and function rules are written in a small Python-compatible subset and
// translated to CEL before compilation, so existing configuration files keep
// working:
//
//     lambda x: x % 5 == 0
//
//     def div7(x):
//         if x % 7:
//             return False
//         else:
//             return True
//
// Expressions may use the integer operators + - * // % and comparisons, the
// boolean operators and, or, not, the membership tests in and not in, the
// constants True and False, and the
// functions is_prime, is_even, is_odd, is_square and abs, plus min and max of
// two integers. Anything else that is valid CEL is also accepted, since the
// translation only rewrites the Python keywords and operators. True division
// (/), exponentiation (**) and None are rejected.
//
// Function bodies may contain return, if / elif / else and pass. A body that
// ends without returning yields false, matching Python's None being falsy.
//
// Truthiness
//
// A rule, or any condition in a function body, may produce a boolean or an
// integer. Integers are true when they are non-zero. Any other type is a
// compile error.
//
// Arithmetic
//
// Integers are 64-bit. Overflow, division by zero and modulus by zero are
// evaluation errors, reported by the engine as a numclass.RuleExecutionError.
// Floor division (//) and modulus (%) round toward negative infinity as in
// Python, so the result of % has the sign of the divisor. They compile to the
// helper functions floor_div and floor_mod, which is how they appear in the
// compiled source.
//
// Termination
//
// CEL has no loops or recursion, so every compiled rule terminates. Evaluation
// observes context cancellation; see InterruptCheckFrequency.
//
// Diagnostics
//
// Evaluator implements numclass.Diagnoser. Diagnose re-runs a compiled rule with
// state tracking and reports the value of every sub-expression, which is
// useful to see why a number did or did not match.
package cel
