/*

Process of compilation

Program Text ->
	parse ->
Parse Tree (front) ->
	analyze ->
Abstract Syntax Tree + Symbol Table (ast) ->
	convert ->
Basic Blocks (cfg) ->
	generate ->
Machine Code (asm) ->
	append text ->
Assembly Text, one instruction per line

*/
package compiler
